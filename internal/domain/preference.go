package domain

import "sort"

// FieldVisibilityKey is the namespaced key of the metadata field visibility map.
const FieldVisibilityKey = "assetflow.metadata_field_visibility"

// metadataFields is the hardcoded metadata panel schema and the default
// visibility of each field.
var metadataFields = []struct {
	Name    string
	Visible bool
}{
	{"name", true},
	{"type", true},
	{"catalog", true},
	{"connector_id", false},
	{"discovered_at", true},
	{"discovery_id", false},
	{"technical.location", true},
	{"technical.format", true},
	{"technical.size_bytes", false},
	{"technical.row_count", true},
	{"operational.approval_status", true},
	{"operational.publish_status", true},
	{"operational.application_name", true},
	{"operational.owner", false},
	{"business.classification", true},
	{"business.sensitivity", true},
	{"business.tags", true},
	{"business.description", true},
	{"business.department", false},
}

// DefaultFieldVisibility returns the default visibility map.
func DefaultFieldVisibility() map[string]bool {
	out := make(map[string]bool, len(metadataFields))
	for _, f := range metadataFields {
		out[f.Name] = f.Visible
	}
	return out
}

// ReconcileFieldVisibility merges stored preferences against the default
// schema: fields no longer in the schema are pruned, new fields take their
// default visibility. It reports whether the result differs from stored.
func ReconcileFieldVisibility(stored map[string]bool) (map[string]bool, bool) {
	out := DefaultFieldVisibility()
	changed := false
	for name, visible := range stored {
		if _, ok := out[name]; !ok {
			changed = true
			continue
		}
		out[name] = visible
	}
	for name := range out {
		if _, ok := stored[name]; !ok {
			changed = true
		}
	}
	return out, changed
}

// IsMetadataField reports whether name is part of the schema.
func IsMetadataField(name string) bool {
	for _, f := range metadataFields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// SortedFieldNames returns the keys of m in lexical order.
func SortedFieldNames(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
