package layout

import (
	"math"
	"sync"

	"github.com/metcalfc/folio/internal/paging"
)

// Measured lays out proportional text from per-rune advances reported by a font backend.
// Advances are cached per face, size and rune, so the backend is asked once for each.
// Measured is safe for concurrent use.
type Measured struct {
	advance    func(font string, size float64, r rune) float64
	lineHeight func(font string, size float64) float64
	cache      sync.Map // advanceKey -> float64
}

type advanceKey struct {
	font string
	size float64
	r    rune
}

// NewMeasured returns a probe backed by the given measurement functions.
func NewMeasured(advance func(font string, size float64, r rune) float64, lineHeight func(font string, size float64) float64) *Measured {
	return &Measured{advance: advance, lineHeight: lineHeight}
}

func (m *Measured) width(font string, size float64) func(rune) float64 {
	return func(r rune) float64 {
		if r == '\n' {
			return 0
		}
		k := advanceKey{font, size, r}
		if w, ok := m.cache.Load(k); ok {
			return w.(float64)
		}
		w := m.advance(font, size, r)
		m.cache.Store(k, w)
		return w
	}
}

// LineHeight returns the height of one line of font at the multiplier.
func (m *Measured) LineHeight(font paging.Font, multiplier int) float64 {
	size := font.Size * float64(multiplier) / 100
	if size <= 0 {
		return 0
	}
	return m.lineHeight(font.Name, size)
}

// Rows returns how many lines fit in rect.
func (m *Measured) Rows(rect paging.Rect, font paging.Font, multiplier int) int {
	h := m.LineHeight(font, multiplier)
	if h <= 0 {
		return 0
	}
	return int(math.Floor(rect.Height / h))
}

// MeasureFit implements paging.Probe.
func (m *Measured) MeasureFit(text []rune, from int, rect paging.Rect, font paging.Font, multiplier int) int {
	rows := m.Rows(rect, font, multiplier)
	if rows <= 0 || rect.Width <= 0 {
		return 0
	}
	size := font.Size * float64(multiplier) / 100
	return fit(text, from, rows, rect.Width, m.width(font.Name, size))
}

// Wrap splits text[r] into the lines MeasureFit counted for a page of width rect.Width.
func (m *Measured) Wrap(text []rune, r paging.Range, rect paging.Rect, font paging.Font, multiplier int) []string {
	size := font.Size * float64(multiplier) / 100
	return wrap(text, r, rect.Width, m.width(font.Name, size))
}
