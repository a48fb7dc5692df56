// Package listing holds pagination and sorting parameters shared by the
// list operations of all aggregates.
package listing

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page selects a zero-based page of results.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page parameters to sane bounds: negative numbers
// become zero, a zero or negative size falls back to the default, and the
// size is capped at the maximum.
func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

// Limit returns the SQL LIMIT value for the page.
func (p Page) Limit() int { return p.Size }

// Offset returns the SQL OFFSET value for the page.
func (p Page) Offset() int { return p.Number * p.Size }

// Sort names a result ordering. The zero value means "no explicit sort";
// repositories then fall back to creation time, newest first.
type Sort struct {
	Field string
	Desc  bool
}

// IsZero reports whether the caller supplied no explicit sort.
func (s Sort) IsZero() bool { return s.Field == "" }
