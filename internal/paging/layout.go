package paging

// Text size multiplier bounds, in percent of the font's base size.
const (
	DefaultTextSizeMultiplier = 100
	MinTextSizeMultiplier     = 50
	MaxTextSizeMultiplier     = 300
	TextSizeMultiplierStep    = 10
)

// Rect is a page or content rectangle size in layout units.
type Rect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Insets are the margins between the page edge and the text block.
type Insets struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// Font names a face and its base size. Pending is set while the face is still being fetched;
// a layout with a pending font cannot be paginated.
type Font struct {
	Name    string  `json:"name"`
	Size    float64 `json:"size"`
	Pending bool    `json:"-"`
}

// Layout is everything pagination depends on. Two equal layouts always produce equal pages.
type Layout struct {
	Page               Rect
	Margins            Insets
	Font               Font
	TextSizeMultiplier int
}

// ContentRect is the page rectangle minus margins.
func (l Layout) ContentRect() Rect {
	return Rect{
		Width:  l.Page.Width - l.Margins.Left - l.Margins.Right,
		Height: l.Page.Height - l.Margins.Top - l.Margins.Bottom,
	}
}

// PointSize is the effective font size after the multiplier.
func (l Layout) PointSize() float64 {
	return l.Font.Size * float64(l.TextSizeMultiplier) / 100
}

// Validate reports ErrUnresolvedLayout if the layout cannot be paginated yet.
func (l Layout) Validate() error {
	switch {
	case l.Font.Pending:
		return newError(CodeUnresolvedLayout, "font %q still loading", l.Font.Name)
	case l.Font.Name == "":
		return newError(CodeUnresolvedLayout, "no font selected")
	case l.Font.Size <= 0:
		return newError(CodeUnresolvedLayout, "font size %v not positive", l.Font.Size)
	case l.TextSizeMultiplier <= 0:
		return newError(CodeUnresolvedLayout, "text size multiplier %d not positive", l.TextSizeMultiplier)
	}
	if r := l.ContentRect(); r.Width <= 0 || r.Height <= 0 {
		return newError(CodeUnresolvedLayout, "content rectangle %vx%v is empty", r.Width, r.Height)
	}
	return nil
}

// ClampMultiplier limits m to the supported multiplier range.
func ClampMultiplier(m int) int {
	return max(MinTextSizeMultiplier, min(m, MaxTextSizeMultiplier))
}

// Probe answers how many runes of text, starting at from, fit in rect when set in font at the
// given multiplier. Zero is a legal answer.
type Probe interface {
	MeasureFit(text []rune, from int, rect Rect, font Font, multiplier int) int
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(text []rune, from int, rect Rect, font Font, multiplier int) int

// MeasureFit calls f.
func (f ProbeFunc) MeasureFit(text []rune, from int, rect Rect, font Font, multiplier int) int {
	return f(text, from, rect, font, multiplier)
}
