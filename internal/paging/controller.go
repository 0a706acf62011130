package paging

// State is the re-pagination state.
type State int

const (
	// Stable means every built page index matches the current layout.
	Stable State = iota
	// Rebuilding means a layout change is being applied.
	Rebuilding
)

func (s State) String() string {
	if s == Rebuilding {
		return "rebuilding"
	}
	return "stable"
}

type anchor struct {
	chapterIdx int
	offset     int
}

// Controller applies layout changes and keeps the reader on the same text. It remembers the
// rune offset of the displayed page, not its index, and re-resolves it after the rebuild.
//
// The anchor is sticky: successive layout changes without a page turn reuse the first
// captured offset, so stepping the text size up and back lands on the original text.
type Controller struct {
	resolver *Resolver
	state    State
	current  Page
	anchor   *anchor
}

// NewController starts a controller showing p.
func NewController(r *Resolver, p Page) *Controller {
	return &Controller{resolver: r, current: p}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Current returns the displayed page.
func (c *Controller) Current() Page {
	return c.current
}

// Show records that the reader moved to p. It clears the sticky anchor.
func (c *Controller) Show(p Page) {
	c.current = p
	c.anchor = nil
}

// Apply switches the book to l and returns the page that now holds the anchored text. The
// open chapter is rebuilt immediately; other chapters rebuild on next access.
func (c *Controller) Apply(l Layout) (Page, error) {
	if c.state == Rebuilding {
		return c.current, ErrRebuilding
	}
	book := c.resolver.Book()
	if l == book.Layout() {
		return c.current, nil
	}
	if err := l.Validate(); err != nil {
		return c.current, err
	}

	c.state = Rebuilding
	defer func() { c.state = Stable }()

	if c.anchor == nil || c.anchor.chapterIdx != c.current.ChapterIdx {
		c.anchor = &anchor{chapterIdx: c.current.ChapterIdx, offset: c.current.Range.Location}
	}

	book.SetLayout(l)
	if _, err := book.Index(c.anchor.chapterIdx, true); err != nil {
		return c.current, err
	}
	p, err := c.resolver.Anchor(c.anchor.chapterIdx, c.anchor.offset)
	if err != nil {
		return c.current, err
	}
	c.current = p
	book.logger.Info("repaginated", "chapter", p.ChapterIdx, "page", p.PageIdx, "anchor", c.anchor.offset, "version", book.Version())
	return p, nil
}

// SetTextSizeMultiplier applies a new multiplier, clamped to the supported range.
func (c *Controller) SetTextSizeMultiplier(m int) (Page, error) {
	l := c.resolver.Book().Layout()
	l.TextSizeMultiplier = ClampMultiplier(m)
	return c.Apply(l)
}

// SetFont applies a new font face and size.
func (c *Controller) SetFont(f Font) (Page, error) {
	l := c.resolver.Book().Layout()
	l.Font = f
	return c.Apply(l)
}

// SetGeometry applies a new page rectangle and margins.
func (c *Controller) SetGeometry(page Rect, margins Insets) (Page, error) {
	l := c.resolver.Book().Layout()
	l.Page = page
	l.Margins = margins
	return c.Apply(l)
}
