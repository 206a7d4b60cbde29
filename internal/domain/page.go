package domain

import (
	"net/url"
	"strconv"
)

// MaxPageSize is the largest pageSize OpenProject honours.
const MaxPageSize = 100

// Page is a window over a collection. Nil fields are not sent.
type Page struct {
	Offset   *int
	PageSize *int
}

// NewPage builds a page from optional values; zero means unset.
func NewPage(offset, pageSize int) Page {
	var p Page
	if offset > 0 {
		p.Offset = &offset
	}
	if pageSize > 0 {
		p.PageSize = &pageSize
	}
	return p
}

// IsZero reports whether neither offset nor page size is set.
func (p Page) IsZero() bool {
	return p.Offset == nil && p.PageSize == nil
}

// EffectivePageSize returns the page size that will be sent, capped at
// MaxPageSize, or 0 when unset.
func (p Page) EffectivePageSize() int {
	if p.PageSize == nil {
		return 0
	}
	if *p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return *p.PageSize
}

// Apply writes offset and pageSize into query when set.
func (p Page) Apply(query url.Values) {
	if p.Offset != nil {
		query.Set("offset", strconv.Itoa(*p.Offset))
	}
	if p.PageSize != nil {
		query.Set("pageSize", strconv.Itoa(p.EffectivePageSize()))
	}
}
