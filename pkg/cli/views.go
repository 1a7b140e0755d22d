package cli

import (
	"strconv"
	"strings"
	"time"

	"assetflow/internal/domain"
)

type assetView struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	Catalog         string            `json:"catalog"`
	State           string            `json:"state"`
	ApplicationName string            `json:"application_name,omitempty"`
	DiscoveryID     string            `json:"discovery_id,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	PublishedTo     string            `json:"published_to,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	CustomColumns   map[string]string `json:"custom_columns,omitempty"`
	Columns         []columnView      `json:"columns,omitempty"`
}

type columnView struct {
	Name        string   `json:"name"`
	Type        string   `json:"type,omitempty"`
	PII         bool     `json:"pii_detected"`
	PIITypes    []string `json:"pii_types,omitempty"`
	Analytical  *string  `json:"masking_logic_analytical,omitempty"`
	Operational *string  `json:"masking_logic_operational,omitempty"`
}

func toAssetView(a *domain.Asset) assetView {
	v := assetView{
		ID:              a.ID,
		Name:            a.Name,
		Type:            a.Type,
		Catalog:         a.Catalog,
		State:           stateLabel(a),
		ApplicationName: a.OperationalMetadata.ApplicationName,
		DiscoveryID:     a.DiscoveryID,
		RejectionReason: a.OperationalMetadata.RejectionReason,
		PublishedTo:     a.OperationalMetadata.PublishedTo,
		Tags:            a.BusinessMetadata.Tags,
		CustomColumns:   a.BusinessMetadata.CustomColumns,
	}
	for i := range a.Columns {
		v.Columns = append(v.Columns, toColumnView(&a.Columns[i]))
	}
	return v
}

// stateLabel renders the lifecycle state in the lowercase form the server
// uses for approval_status.
func stateLabel(a *domain.Asset) string {
	return strings.ToLower(string(a.State()))
}

func toColumnView(c *domain.Column) columnView {
	return columnView{
		Name:        c.Name,
		Type:        c.Type,
		PII:         c.PIIDetected,
		PIITypes:    c.PIITypes,
		Analytical:  c.MaskingLogicAnalytical,
		Operational: c.MaskingLogicOperational,
	}
}

func columnRow(c columnView) []string {
	return []string{
		c.Name, c.Type, strconv.FormatBool(c.PII), strings.Join(c.PIITypes, ","),
		deref(c.Analytical), deref(c.Operational),
	}
}

var columnHeaders = []string{"name", "type", "pii", "pii_types", "analytical", "operational"}

// assetFields flattens an asset into the dotted names used by the field
// visibility preference.
func assetFields(a *domain.Asset) map[string]interface{} {
	om := a.OperationalMetadata
	bm := a.BusinessMetadata
	tm := a.TechnicalMetadata
	return map[string]interface{}{
		"name":                         a.Name,
		"type":                         a.Type,
		"catalog":                      a.Catalog,
		"connector_id":                 a.ConnectorID,
		"discovered_at":                formatTime(&a.DiscoveredAt),
		"discovery_id":                 a.DiscoveryID,
		"technical.location":           tm.Location,
		"technical.format":             tm.Format,
		"technical.size_bytes":         tm.SizeBytes,
		"technical.row_count":          tm.RowCount,
		"operational.approval_status":  string(om.ApprovalStatus.Normalize()),
		"operational.publish_status":   string(om.PublishStatus),
		"operational.application_name": om.ApplicationName,
		"operational.owner":            om.Owner,
		"business.classification":      bm.Classification,
		"business.sensitivity":         bm.Sensitivity,
		"business.tags":                bm.Tags,
		"business.description":         bm.Description,
		"business.department":          bm.Department,
	}
}

type jobView struct {
	JobID     string  `json:"job_id"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress_percent"`
	Processed int     `json:"processed_count"`
	Hidden    int     `json:"hidden"`
	Error     string  `json:"error_message,omitempty"`
	Outcome   string  `json:"outcome,omitempty"`
	Attempts  int     `json:"attempts,omitempty"`
}

func toJobView(res *domain.JobResult) jobView {
	return jobView{
		JobID:     res.JobID,
		Status:    string(res.Last.Status),
		Progress:  res.Last.ProgressPercent,
		Processed: res.Last.ProcessedCount,
		Hidden:    res.Last.HiddenCount,
		Error:     res.Last.ErrorMessage,
		Outcome:   string(res.Outcome),
		Attempts:  res.Attempts,
	}
}

type discoveryView struct {
	ID           string `json:"id"`
	AssetID      string `json:"asset_id,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
	Name         string `json:"name,omitempty"`
	DuplicateOf  string `json:"duplicate_of,omitempty"`
	DiscoveredAt string `json:"discovered_at,omitempty"`
}

func toDiscoveryView(d *domain.Discovery) discoveryView {
	return discoveryView{
		ID:           d.ID,
		AssetID:      d.AssetID,
		ConnectionID: d.ConnectionID,
		Name:         d.Name,
		DuplicateOf:  d.DuplicateOf,
		DiscoveredAt: formatTime(&d.DiscoveredAt),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
