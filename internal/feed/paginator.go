// Package feed slices ordered post queries into fixed-size pages.
package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Page is one window of an ordered collection. An empty collection still
// has exactly one (empty) page.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

func (p *Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}
func (p *Page[T]) NextNumber() int     { return p.Number + 1 }
func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

// Numbers returns every page number, for rendering pagination links.
func (p *Page[T]) Numbers() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// NumPages returns how many pages count items occupy; never less than one.
func NumPages(count int64, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// ResolvePage turns a raw page query value into a valid page number.
// Anything that is not an integer selects the first page; integers outside
// [1, numPages] select the last page.
func ResolvePage(raw string, numPages int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// Paginate counts query, resolves raw to a page number and loads that page.
// query must already carry its ORDER BY so windows are deterministic.
// loadScopes (preloads, typically) apply to the item load only, not the count.
func Paginate[T any](ctx context.Context, query *gorm.DB, raw string, perPage int, loadScopes ...func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}

	var count int64
	if err := query.Session(&gorm.Session{}).WithContext(ctx).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count page items: %w", err)
	}

	numPages := NumPages(count, perPage)
	number := ResolvePage(raw, numPages)

	page := &Page[T]{
		Items:    []T{},
		Number:   number,
		NumPages: numPages,
		Count:    count,
		PerPage:  perPage,
	}
	if count == 0 {
		return page, nil
	}

	offset := (number - 1) * perPage
	if err := query.Session(&gorm.Session{}).WithContext(ctx).
		Scopes(loadScopes...).
		Limit(perPage).
		Offset(offset).
		Find(&page.Items).Error; err != nil {
		return nil, fmt.Errorf("load page %d: %w", number, err)
	}
	return page, nil
}
