package repository

import (
	"errors"
	"log/slog"
)

// Query describes an optional filter and pagination for a product listing.
// Search takes precedence over Tag when both are set.
type Query struct {
	// Search is a case-insensitive substring match against product titles.
	Search string

	// Tag is a case-insensitive exact match against a product's tag set.
	Tag string

	// Limit caps the number of returned products. Zero means unbounded.
	Limit int

	// Paginator continues a previous listing from its cursor.
	Paginator *Paginator
}

// NewQuery creates an empty query: no filter, no limit.
func NewQuery() *Query {
	return &Query{}
}

// ApplyPagination applies an optional page size and continuation token to
// the query. A non-positive limit leaves the listing unbounded.
func (q *Query) ApplyPagination(limit int32, token string) error {
	if limit > 0 {
		q.Limit = min(maxPaginationLimit, int(limit))
	}

	if token == "" {
		return nil
	}

	paginator, err := DecodePageToken(token)
	if err != nil {
		slog.Error("failed to decode page token", slog.Any("err", err), slog.String("token", token))
		return errors.New("invalid page token")
	}
	q.Paginator = paginator
	return nil
}
