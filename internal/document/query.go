package document

import (
	"sort"
	"strings"
	"time"
)

// ListOptions holds the filter/sort/pagination parameters for a listing.
// Page is 1-indexed. DateFrom/DateTo bound createdAt inclusively; DateTo is
// stretched to the end of its calendar day so "2024-01-02" matches documents
// created any time that day.
type ListOptions struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string // "asc" | "desc"
	DateFrom  *time.Time
	DateTo    *time.Time
}

// ListResult is a single page of a filtered, sorted listing.
type ListResult struct {
	Data       []*Document `json:"data"`
	TotalCount int         `json:"totalCount"`
	Page       int         `json:"currentPage"`
	TotalPages int         `json:"totalPages"`
}

// Query filters docs down to those readable by userID, applies search and
// date filters, sorts and paginates. A page beyond range yields an empty
// slice, never an error. Counts are computed after filtering and before
// pagination, so invisible documents never leak through totals.
func Query(docs []*Document, userID string, opts ListOptions) *ListResult {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 10
	}

	visible := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if CanRead(d, userID) {
			visible = append(visible, d)
		}
	}

	if s := strings.TrimSpace(opts.Search); s != "" {
		needle := strings.ToLower(s)
		kept := visible[:0]
		for _, d := range visible {
			if strings.Contains(strings.ToLower(d.Title), needle) {
				kept = append(kept, d)
			}
		}
		visible = kept
	}

	if opts.DateFrom != nil {
		kept := visible[:0]
		for _, d := range visible {
			if !d.CreatedAt.Before(*opts.DateFrom) {
				kept = append(kept, d)
			}
		}
		visible = kept
	}
	if opts.DateTo != nil {
		end := endOfDay(*opts.DateTo)
		kept := visible[:0]
		for _, d := range visible {
			if !d.CreatedAt.After(end) {
				kept = append(kept, d)
			}
		}
		visible = kept
	}

	sortDocuments(visible, opts.SortBy, opts.SortOrder)

	total := len(visible)
	totalPages := (total + opts.Limit - 1) / opts.Limit
	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	var page []*Document
	if start >= total {
		page = []*Document{}
	} else {
		if end > total {
			end = total
		}
		page = visible[start:end]
	}

	return &ListResult{
		Data:       page,
		TotalCount: total,
		Page:       opts.Page,
		TotalPages: totalPages,
	}
}

func sortDocuments(docs []*Document, sortBy, order string) {
	desc := order != "asc"
	less := func(a, b *Document) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch sortBy {
	case "title":
		less = func(a, b *Document) bool { return a.Title < b.Title }
	case "updatedAt":
		less = func(a, b *Document) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return less(docs[j], docs[i])
		}
		return less(docs[i], docs[j])
	})
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
