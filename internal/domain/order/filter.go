package order

import (
	"strings"
	"time"
)

// Filter narrows order listings. Each field is optional; present fields
// combine as AND predicates, so all eight partner/status/date-range
// combinations fall out of composition rather than explicit branching.
type Filter struct {
	PartnerID string
	Status    *Status
	From      *time.Time
	To        *time.Time
}

// HasPartnerID reports whether a non-blank partner id filter is present.
func (f Filter) HasPartnerID() bool {
	return strings.TrimSpace(f.PartnerID) != ""
}

// HasStatus reports whether a status filter is present.
func (f Filter) HasStatus() bool { return f.Status != nil }

// HasDateRange reports whether both ends of the creation date range are
// present. A half-open range is treated as absent.
func (f Filter) HasDateRange() bool { return f.From != nil && f.To != nil }

// HasFilters reports whether any filter is present.
func (f Filter) HasFilters() bool {
	return f.HasPartnerID() || f.HasStatus() || f.HasDateRange()
}
