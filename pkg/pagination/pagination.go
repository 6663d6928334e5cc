package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any page can return.
	MaxLimit = 100
)

// Params holds pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Page is one slice of an in-memory result set plus the cursor for the next slice.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	Total      int    `json:"total"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds an opaque cursor pointing at the given offset.
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset)))
}

// ParseCursor decodes the cursor back into an offset. An empty cursor means offset 0.
func ParseCursor(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return 0, fmt.Errorf("decode cursor: %w", err)
	}
	raw, ok := strings.CutPrefix(string(decoded), "o:")
	if !ok {
		return 0, fmt.Errorf("invalid cursor format")
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid cursor offset")
	}
	return offset, nil
}

// Slice pages over an already sorted slice.
func Slice[T any](items []T, params Params) (Page[T], error) {
	offset, err := ParseCursor(params.Cursor)
	if err != nil {
		return Page[T]{}, err
	}
	limit := NormalizeLimit(params.Limit)
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := Page[T]{Items: make([]T, 0, end-offset), Total: total}
	page.Items = append(page.Items, items[offset:end]...)
	if end < total {
		page.NextCursor = EncodeCursor(end)
	}
	return page, nil
}
