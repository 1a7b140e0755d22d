package domain

import (
	"slices"
	"strings"
)

// Page size bounds for asset listing.
const (
	DefaultPageSize = 25
	MaxPageSize     = 500
)

// FilterSet holds the five independent multi-value predicates applied to
// asset listing. An empty predicate matches everything.
type FilterSet struct {
	Search           []string
	Types            []string
	Catalogs         []string
	ApprovalStatuses []ApprovalStatus
	ApplicationNames []string
}

// Equal reports whether both filter sets select the same assets.
func (f FilterSet) Equal(o FilterSet) bool {
	return slices.Equal(f.Search, o.Search) &&
		slices.Equal(f.Types, o.Types) &&
		slices.Equal(f.Catalogs, o.Catalogs) &&
		slices.Equal(f.ApprovalStatuses, o.ApprovalStatuses) &&
		slices.Equal(f.ApplicationNames, o.ApplicationNames)
}

// IsEmpty reports whether no predicate is set.
func (f FilterSet) IsEmpty() bool {
	return len(f.Search) == 0 && len(f.Types) == 0 && len(f.Catalogs) == 0 &&
		len(f.ApprovalStatuses) == 0 && len(f.ApplicationNames) == 0
}

// Clean trims blanks and drops empty values from every predicate.
func (f FilterSet) Clean() FilterSet {
	statuses := make([]ApprovalStatus, 0, len(f.ApprovalStatuses))
	for _, s := range f.ApprovalStatuses {
		if v := strings.TrimSpace(string(s)); v != "" {
			statuses = append(statuses, ApprovalStatus(strings.ToLower(v)))
		}
	}
	return FilterSet{
		Search:           compactNonEmpty(f.Search),
		Types:            compactNonEmpty(f.Types),
		Catalogs:         compactNonEmpty(f.Catalogs),
		ApprovalStatuses: nilIfEmpty(statuses),
		ApplicationNames: compactNonEmpty(f.ApplicationNames),
	}
}

// Validate checks that every approval status is a known value.
func (f FilterSet) Validate() error {
	for _, s := range f.ApprovalStatuses {
		switch s {
		case ApprovalPending, ApprovalApproved, ApprovalRejected:
		default:
			return ErrValidation("unknown approval status %q", s)
		}
	}
	return nil
}

// ClampPageSize returns the effective page size, clamped to [1, MaxPageSize].
func ClampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return nilIfEmpty(out)
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}
