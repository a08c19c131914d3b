// Package pager windows an ordered list into fixed-size pages that
// advance on every tick and wrap back to the first page.
package pager

// DefaultPageSize is used when a non-positive size is requested.
const DefaultPageSize = 10

// Pager tracks the start index of the visible window. It holds no list,
// only its length, so it can be handed a fresh list on every recompute.
// A Pager is not safe for concurrent use; one goroutine owns it.
type Pager struct {
	size   int
	length int
	start  int
}

// New returns a pager with the given page size.
func New(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{size: pageSize}
}

// Resize records a new list length. The current start is kept while it
// still addresses an element; otherwise the pager restarts at the first
// page.
func (p *Pager) Resize(length int) {
	if length < 0 {
		length = 0
	}
	p.length = length
	if p.start >= length || p.Inert() {
		p.start = 0
	}
}

// Inert reports whether the whole list fits on one page.
func (p *Pager) Inert() bool {
	return p.length <= p.size
}

// Tick advances the window by one page. It reports whether the window
// moved and whether it wrapped to the first page.
func (p *Pager) Tick() (advanced, wrapped bool) {
	if p.Inert() {
		return false, false
	}
	next := p.start + p.size
	if next >= p.length {
		p.start = 0
		return true, true
	}
	p.start = next
	return true, false
}

// Start is the index of the first visible element.
func (p *Pager) Start() int { return p.start }

// Size is the page size.
func (p *Pager) Size() int { return p.size }

// Len is the length of the list last handed to Resize.
func (p *Pager) Len() int { return p.length }

// Page is the 1-based number of the visible page.
func (p *Pager) Page() int { return p.start/p.size + 1 }

// Pages is the number of pages, at least 1.
func (p *Pager) Pages() int {
	if p.length == 0 {
		return 1
	}
	return (p.length + p.size - 1) / p.size
}

// Window returns the visible slice of items for the pager's position.
// items is expected to have the length last passed to Resize; a shorter
// slice is clamped rather than indexed out of range.
func Window[T any](p *Pager, items []T) []T {
	start := p.start
	if start >= len(items) {
		return items[:0]
	}
	end := start + p.size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
