package paging

import "fmt"

// Range is a half-open rune range [Location, Location+Length) into a chapter's text.
type Range struct {
	Location int `json:"location"`
	Length   int `json:"length"`
}

// NewRange returns the range [start, end). A negative span yields an empty range at start.
func NewRange(start, end int) Range {
	if end < start {
		end = start
	}
	return Range{Location: start, Length: end - start}
}

// End returns the exclusive end offset.
func (r Range) End() int {
	return r.Location + r.Length
}

// IsEmpty reports whether the range covers no runes.
func (r Range) IsEmpty() bool {
	return r.Length <= 0
}

// Contains reports whether offset lies in [Location, End).
func (r Range) Contains(offset int) bool {
	return offset >= r.Location && offset < r.End()
}

// Owns reports whether offset belongs to the range. An empty range owns its own location, so
// the single page of an empty chapter still owns offset 0.
func (r Range) Owns(offset int) bool {
	if r.IsEmpty() {
		return offset == r.Location
	}
	return r.Contains(offset)
}

// Follows reports whether the range ends after offset, i.e. it covers offset or lies entirely
// past it.
func (r Range) Follows(offset int) bool {
	return r.End() > offset
}

// Adjacent reports whether next starts exactly where r ends.
func (r Range) Adjacent(next Range) bool {
	return r.End() == next.Location
}

// Clamp returns offset limited to [0, n].
func Clamp(offset, n int) int {
	if offset < 0 {
		return 0
	}
	if offset > n {
		return n
	}
	return offset
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Location, r.End())
}
