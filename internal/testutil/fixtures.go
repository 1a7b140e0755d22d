package testutil

import (
	"fmt"
	"time"

	"assetflow/internal/domain"
)

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// Asset returns a pending table asset with two columns, one of them PII.
func Asset(id string) domain.Asset {
	return domain.Asset{
		ID:           id,
		Name:         "orders_" + id,
		Type:         "table",
		Catalog:      "sales",
		ConnectorID:  "conn-1",
		DiscoveredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		TechnicalMetadata: domain.TechnicalMetadata{
			Location: "s3://lake/sales/orders",
			Format:   "parquet",
			RowCount: 1200,
		},
		OperationalMetadata: domain.OperationalMetadata{
			ApprovalStatus:  domain.ApprovalPending,
			ApplicationName: "billing",
		},
		BusinessMetadata: domain.BusinessMetadata{
			Classification: "internal",
			Tags:           []string{"finance"},
		},
		Columns: []domain.Column{
			{Name: "id", Type: "BIGINT"},
			{
				Name:                   "email",
				Type:                   "VARCHAR",
				Nullable:               true,
				PIIDetected:            true,
				PIITypes:               []string{"EMAIL"},
				MaskingLogicAnalytical: StrPtr("hash"),
			},
		},
	}
}

// Assets returns n fixture assets with ids a0..a(n-1).
func Assets(n int) []domain.Asset {
	out := make([]domain.Asset, n)
	for i := range out {
		out[i] = Asset(fmt.Sprintf("a%d", i))
	}
	return out
}
