package domain

import (
	"slices"
	"strings"
)

// ColumnKey scopes per-column edit state to one asset. Columns with the same
// name in different assets never share a key.
type ColumnKey struct {
	AssetID string
	Column  string
}

func (k ColumnKey) String() string { return k.AssetID + "/" + k.Column }

// Validate checks that both parts of the key are set.
func (k ColumnKey) Validate() error {
	if k.AssetID == "" {
		return ErrValidation("asset id is required")
	}
	if k.Column == "" {
		return ErrValidation("column name is required")
	}
	return nil
}

// MaskingTier selects the audience a masking logic applies to.
type MaskingTier string

// Masking tiers.
const (
	TierAnalytical  MaskingTier = "analytical"
	TierOperational MaskingTier = "operational"
)

// ParseMaskingTier parses a tier name.
func ParseMaskingTier(s string) (MaskingTier, error) {
	switch MaskingTier(strings.ToLower(strings.TrimSpace(s))) {
	case TierAnalytical:
		return TierAnalytical, nil
	case TierOperational:
		return TierOperational, nil
	}
	return "", ErrValidation("unknown masking tier %q: use 'analytical' or 'operational'", s)
}

// PIITypes is the built-in PII type catalog.
var PIITypes = []string{
	"EMAIL",
	"PHONE",
	"SSN",
	"NAME",
	"ADDRESS",
	"CREDIT_CARD",
	"DATE_OF_BIRTH",
	"IP_ADDRESS",
	"PASSPORT",
}

// IsCatalogPIIType reports whether t is in the built-in catalog (case-sensitive).
func IsCatalogPIIType(t string) bool {
	return slices.Contains(PIITypes, t)
}

// MaskingOptions lists the masking logics selectable for each tier.
type MaskingOptions struct {
	Analytical  []string
	Operational []string
}

// For returns the options of one tier.
func (o MaskingOptions) For(tier MaskingTier) []string {
	if tier == TierOperational {
		return o.Operational
	}
	return o.Analytical
}

// DefaultMaskingOptions is used when a column's first PII type has no entry in
// the masking catalog.
var DefaultMaskingOptions = MaskingOptions{
	Analytical:  []string{"hash", "redact", "nullify", "none"},
	Operational: []string{"partial_mask", "redact", "none"},
}

var maskingCatalog = map[string]MaskingOptions{
	"EMAIL": {
		Analytical:  []string{"hash", "domain_only", "redact", "none"},
		Operational: []string{"mask_local_part", "redact", "none"},
	},
	"PHONE": {
		Analytical:  []string{"hash", "area_code_only", "redact", "none"},
		Operational: []string{"last_four", "redact", "none"},
	},
	"SSN": {
		Analytical:  []string{"hash", "tokenize", "redact"},
		Operational: []string{"last_four", "redact"},
	},
	"NAME": {
		Analytical:  []string{"hash", "initials", "redact", "none"},
		Operational: []string{"first_name_only", "initials", "none"},
	},
	"ADDRESS": {
		Analytical:  []string{"postal_code_only", "city_only", "redact", "none"},
		Operational: []string{"street_redacted", "none"},
	},
	"CREDIT_CARD": {
		Analytical:  []string{"tokenize", "hash", "redact"},
		Operational: []string{"last_four", "redact"},
	},
	"DATE_OF_BIRTH": {
		Analytical:  []string{"year_only", "age_bucket", "redact", "none"},
		Operational: []string{"year_only", "none"},
	},
	"IP_ADDRESS": {
		Analytical:  []string{"truncate_octet", "hash", "none"},
		Operational: []string{"truncate_octet", "none"},
	},
}

// MaskingOptionsFor derives the option sets from the first declared PII type.
func MaskingOptionsFor(piiTypes []string) MaskingOptions {
	if len(piiTypes) == 0 {
		return DefaultMaskingOptions
	}
	if opts, ok := maskingCatalog[strings.ToUpper(piiTypes[0])]; ok {
		return opts
	}
	return DefaultMaskingOptions
}

// ColumnPIIUpdate is the body of a column-level PII and masking write.
type ColumnPIIUpdate struct {
	PIIDetected             bool
	PIITypes                []string
	MaskingLogicAnalytical  *string
	MaskingLogicOperational *string
}
