package store

import (
	"encoding/base64"
	"strconv"
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // items per page (defaults to 50, maximum 500)
	Cursor string // opaque cursor for the next page (empty for the first page)
}

// PaginatedResult contains paginated data and metadata.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // empty if no more pages
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total,omitempty"`
}

// DefaultPaginationParams returns sensible defaults.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Limit: 50}
}

// Validate checks and corrects pagination parameters.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 500 {
		p.Limit = 500
	}
}

// Offset decodes the cursor into a row offset. Listings are sorted on
// mutable keys (favourite flag, views) so cursors are positional.
func (p PaginationParams) Offset() (int, error) {
	raw, err := DecodeCursor(p.Cursor)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidInput.WithMessagef("invalid cursor %q", p.Cursor)
	}
	return n, nil
}

// NewPage builds a result from rows fetched with limit+1, where offset is
// the position of rows[0].
func NewPage[T any](rows []T, offset, limit int) *PaginatedResult[T] {
	result := &PaginatedResult[T]{Items: rows}
	if len(rows) > limit {
		result.Items = rows[:limit]
		result.HasMore = true
		result.NextCursor = EncodeCursor(strconv.Itoa(offset + limit))
	}
	if result.Items == nil {
		result.Items = []T{}
	}
	return result
}

// EncodeCursor creates an opaque cursor from a key.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor decodes a cursor back to a key.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", ErrInvalidInput.WithMessage("invalid cursor").WithCause(err)
	}

	return string(decoded), nil
}

// Paginate slices an already sorted in-memory result set.
func Paginate[T any](all []T, params PaginationParams) (*PaginatedResult[T], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, err
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := min(offset+params.Limit+1, len(all))
	page := NewPage(all[offset:end], offset, params.Limit)
	page.Total = len(all)
	return page, nil
}

