package search

import (
	"context"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

// Query carries paging, sorting and an optional free-text filter.
type Query struct {
	From int
	Size int
	// SortVersionCreated is "asc" or "desc"; empty means provider default.
	SortVersionCreated string
	Text               string
}

// PageSize returns the effective page size (25 when unset).
func (q Query) PageSize() int {
	if q.Size <= 0 {
		return 25
	}
	return q.Size
}

// Cursor is a countable, indexable page of results. Total is the vendor's
// reported total and may exceed the number of materialized items: vendor
// pages can contain fewer populated slots than the page size.
type Cursor struct {
	Items []ingest.Item
	Total int
}

// Count reports the vendor total, not the page length.
func (c *Cursor) Count() int {
	return c.Total
}

func (c *Cursor) Len() int {
	return len(c.Items)
}

// Provider searches an external media catalog. Params carry
// provider-specific filters (orientation, reference, filename, firstdate).
type Provider interface {
	Find(ctx context.Context, query Query, params map[string]string) (*Cursor, error)
}

// Fetcher is implemented by providers that support single-item retrieval.
type Fetcher interface {
	Fetch(ctx context.Context, guid string) (*ingest.Item, error)
}

// FileFetcher is implemented by providers that can retrieve rendition
// binaries, preferring a previously stored local copy over a re-download.
type FileFetcher interface {
	FetchFile(ctx context.Context, href string, rendition ingest.Rendition, item *ingest.Item) ([]byte, error)
}
