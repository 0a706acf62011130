// Package layout provides text layout probes for the paging engine.
package layout

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/metcalfc/folio/internal/paging"
)

// Cell lays text out on a grid of fixed-size cells, the way a terminal does. East Asian wide
// runes take two cells. Lines wrap at spaces, or anywhere inside words longer than a line.
type Cell struct {
	// AdvanceRatio is the cell width relative to the point size.
	AdvanceRatio float64
	// LineHeightRatio is the line height relative to the point size.
	LineHeightRatio float64
	// MinSize is the smallest effective point size the device can draw. Zero means no floor.
	MinSize float64
}

// Terminal returns a probe where a font of size 1 at multiplier 100 maps one layout unit to
// one terminal cell. Larger multipliers shrink the grid. A terminal cannot draw cells smaller
// than its own, so multipliers below 100 lay out like 100.
func Terminal() Cell {
	return Cell{AdvanceRatio: 1, LineHeightRatio: 1, MinSize: 1}
}

// Grid returns the number of columns and rows that fit in rect.
func (c Cell) Grid(rect paging.Rect, font paging.Font, multiplier int) (cols, rows int) {
	size := font.Size * float64(multiplier) / 100
	if size > 0 {
		size = max(size, c.MinSize)
	}
	if size <= 0 || c.AdvanceRatio <= 0 || c.LineHeightRatio <= 0 {
		return 0, 0
	}
	cols = int(math.Floor(rect.Width / (size * c.AdvanceRatio)))
	rows = int(math.Floor(rect.Height / (size * c.LineHeightRatio)))
	return cols, rows
}

// MeasureFit implements paging.Probe.
func (c Cell) MeasureFit(text []rune, from int, rect paging.Rect, font paging.Font, multiplier int) int {
	cols, rows := c.Grid(rect, font, multiplier)
	if cols <= 0 || rows <= 0 {
		return 0
	}
	return fit(text, from, rows, float64(cols), cellWidth)
}

// Wrap splits text[r] into display lines of at most cols cells, breaking exactly where
// MeasureFit does.
func Wrap(text []rune, r paging.Range, cols int) []string {
	return wrap(text, r, float64(max(cols, 1)), cellWidth)
}

func cellWidth(r rune) float64 {
	return float64(runewidth.RuneWidth(r))
}

func fit(text []rune, from, rows int, limit float64, width func(rune) float64) int {
	pos := from
	for row := 0; row < rows && pos < len(text); row++ {
		pos = nextLine(text, pos, limit, width)
	}
	return pos - from
}

func wrap(text []rune, r paging.Range, limit float64, width func(rune) float64) []string {
	end := paging.Clamp(r.End(), len(text))
	var lines []string
	for pos := paging.Clamp(r.Location, len(text)); pos < end; {
		next := min(nextLine(text[:end], pos, limit, width), end)
		lines = append(lines, strings.TrimRight(string(text[pos:next]), " \t\n"))
		pos = next
	}
	return lines
}

// nextLine returns the offset where the line starting at pos ends, including the newline or
// trailing spaces it swallows. Lines break after spaces and after wide runes; a word longer
// than the line is split wherever it overflows.
func nextLine(text []rune, pos int, limit float64, width func(rune) float64) int {
	used := 0.0
	lastBreak := -1
	for i := pos; i < len(text); i++ {
		r := text[i]
		if r == '\n' {
			return i + 1
		}
		w := width(r)
		if used+w > limit {
			if r == ' ' || r == '\t' {
				for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
					i++
				}
				if i < len(text) && text[i] == '\n' {
					i++
				}
				return i
			}
			if lastBreak > pos {
				return lastBreak
			}
			if i == pos {
				return i + 1
			}
			return i
		}
		used += w
		if r == ' ' || r == '\t' || runewidth.RuneWidth(r) > 1 {
			lastBreak = i + 1
		}
	}
	return len(text)
}
