package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xenking/b2b-orders/internal/domain/listing"
)

// parsePage reads the page and size query parameters. Page numbers are
// zero-based; bounds are clamped later by Page.Normalize.
func parsePage(r *http.Request) (listing.Page, error) {
	var page listing.Page

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, fmt.Errorf("invalid page %q", raw)
		}
		page.Number = n
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return page, fmt.Errorf("invalid size %q", raw)
		}
		page.Size = n
	}
	return page, nil
}

// parseSort reads the sort query parameter in the form "field" or
// "field,desc". Absent sort falls back to creation time descending.
func parseSort(r *http.Request) (listing.Sort, error) {
	raw := r.URL.Query().Get("sort")
	if raw == "" {
		return listing.Sort{}, nil
	}

	field, dir, hasDir := strings.Cut(raw, ",")
	s := listing.Sort{Field: strings.TrimSpace(field)}
	if s.Field == "" {
		return listing.Sort{}, fmt.Errorf("invalid sort %q", raw)
	}
	if hasDir {
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "asc":
		case "desc":
			s.Desc = true
		default:
			return listing.Sort{}, fmt.Errorf("invalid sort direction %q", dir)
		}
	}
	return s, nil
}

// parseTimeParam reads an optional RFC 3339 timestamp query parameter.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: expected RFC 3339 timestamp", name, raw)
	}
	return &t, nil
}
