// Package paging splits book chapters into pages under a layout and resolves locations
// between page indices, rune offsets and global page numbers.
//
// A Book is owned by a single goroutine; nothing in this package locks.
package paging

import (
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
)

// SourceChapter is one fully parsed chapter handed over by a format reader.
type SourceChapter struct {
	Title string
	Href  string
	Text  string
}

// TOCEntry is one entry of the flattened table of contents. Level is the nesting depth.
type TOCEntry struct {
	Title string
	Href  string
	Level int
}

// Source is a parsed book.
type Source struct {
	Title    string
	Language string
	Chapters []SourceChapter
	TOC      []TOCEntry
}

// IsCJK reports whether the book language is Chinese, Japanese or Korean.
func IsCJK(language string) bool {
	lang := strings.ToLower(language)
	for _, p := range []string{"zh", "ja", "ko"} {
		if lang == p || strings.HasPrefix(lang, p+"-") || strings.HasPrefix(lang, p+"_") {
			return true
		}
	}
	return false
}

// Chapter is a chapter's text plus its lazily built page index.
type Chapter struct {
	Index int
	Title string
	Href  string

	text          []rune
	chapterOffset int
	tocPosition   int
	pages         *Index
}

// Text returns the chapter text. Callers must not modify it.
func (c *Chapter) Text() []rune {
	return c.text
}

// Len returns the text length in runes.
func (c *Chapter) Len() int {
	return len(c.text)
}

// ChapterOffset is the number of flattened TOC entries that point before this chapter.
func (c *Chapter) ChapterOffset() int {
	return c.chapterOffset
}

// Snippet returns the text of r, clamped to the chapter.
func (c *Chapter) Snippet(r Range) string {
	start := Clamp(r.Location, len(c.text))
	end := Clamp(r.End(), len(c.text))
	return string(c.text[start:end])
}

// Option configures a Book.
type Option func(*Book)

// WithLogger sets the logger used for pagination warnings.
func WithLogger(l *slog.Logger) Option {
	return func(b *Book) {
		if l != nil {
			b.logger = l
		}
	}
}

// Book owns the chapters, their page indices and the page offset cache.
type Book struct {
	Title    string
	Language string

	chapters   []*Chapter
	toc        []TOCEntry
	tocChapter []int

	layout  Layout
	version uint64
	probe   Probe
	logger  *slog.Logger

	// offsets[i] is the number of pages before chapter i. Only a prefix is valid: entry i
	// exists once chapters 0..i-1 are paginated under the current version.
	offsets  []int
	degraded map[int]int
}

// NewBook creates a book from src. Nothing is paginated until pages are requested.
func NewBook(src Source, layout Layout, probe Probe, opts ...Option) (*Book, error) {
	if len(src.Chapters) == 0 {
		return nil, newError(CodeNotFound, "book %q has no chapters", src.Title)
	}

	b := &Book{
		Title:    src.Title,
		Language: src.Language,
		layout:   layout,
		version:  1,
		probe:    probe,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		offsets:  []int{0},
		degraded: make(map[int]int),
	}
	for _, opt := range opts {
		opt(b)
	}

	for i, sc := range src.Chapters {
		b.chapters = append(b.chapters, &Chapter{
			Index: i,
			Title: sc.Title,
			Href:  sc.Href,
			text:  []rune(sc.Text),
		})
	}

	b.toc = append([]TOCEntry(nil), src.TOC...)
	b.tocChapter = make([]int, len(b.toc))
	for i, e := range b.toc {
		idx, err := b.FindChapterIndex(e.Href)
		if err != nil {
			idx = -1
		}
		b.tocChapter[i] = idx
	}
	b.computeChapterOffsets()

	return b, nil
}

func (b *Book) computeChapterOffsets() {
	for _, c := range b.chapters {
		c.chapterOffset = 0
		c.tocPosition = -1
		for i, target := range b.tocChapter {
			if target < 0 {
				continue
			}
			if target < c.Index {
				c.chapterOffset++
			}
			if target <= c.Index {
				c.tocPosition = i
			}
		}
	}
}

// ChapterCount returns the number of raw chapters.
func (b *Book) ChapterCount() int {
	return len(b.chapters)
}

// Chapter returns the chapter at a raw index.
func (b *Book) Chapter(idx int) (*Chapter, error) {
	if idx < 0 || idx >= len(b.chapters) {
		return nil, outOfRange("chapter", idx, len(b.chapters))
	}
	return b.chapters[idx], nil
}

// Layout returns the current layout.
func (b *Book) Layout() Layout {
	return b.layout
}

// Version increases every time the layout changes.
func (b *Book) Version() uint64 {
	return b.version
}

// TOC returns the flattened table of contents.
func (b *Book) TOC() []TOCEntry {
	return b.toc
}

// TOCChapter returns the raw chapter index a TOC entry points to.
func (b *Book) TOCChapter(entry int) (int, error) {
	if entry < 0 || entry >= len(b.tocChapter) {
		return 0, outOfRange("toc entry", entry, len(b.tocChapter))
	}
	if b.tocChapter[entry] < 0 {
		return 0, newError(CodeNotFound, "toc entry %q has no chapter", b.toc[entry].Href)
	}
	return b.tocChapter[entry], nil
}

// ChapterOffset returns the number of flattened TOC entries before chapter idx.
func (b *Book) ChapterOffset(idx int) (int, error) {
	c, err := b.Chapter(idx)
	if err != nil {
		return 0, err
	}
	return c.chapterOffset, nil
}

// TOCPosition returns the flattened TOC entry that chapter idx belongs to, or -1 when the
// chapter precedes every entry.
func (b *Book) TOCPosition(idx int) (int, error) {
	c, err := b.Chapter(idx)
	if err != nil {
		return 0, err
	}
	return c.tocPosition, nil
}

// FindChapterIndex maps a TOC href to a raw chapter index. Fragments are ignored and a
// base-name match is accepted when no exact match exists.
func (b *Book) FindChapterIndex(href string) (int, error) {
	target := href
	if i := strings.Index(target, "#"); i != -1 {
		target = target[:i]
	}
	if target == "" {
		return 0, newError(CodeNotFound, "empty href")
	}
	for _, c := range b.chapters {
		if c.Href == target {
			return c.Index, nil
		}
	}
	base := path.Base(target)
	for _, c := range b.chapters {
		if c.Href != "" && path.Base(c.Href) == base {
			return c.Index, nil
		}
	}
	return 0, newError(CodeNotFound, "no chapter for href %q", href)
}

// SetLayout switches to a new layout and invalidates every page index. It returns false if
// the layout is unchanged.
func (b *Book) SetLayout(l Layout) bool {
	if l == b.layout {
		return false
	}
	b.layout = l
	b.version++
	b.offsets = b.offsets[:1]
	clear(b.degraded)
	b.logger.Debug("layout changed", "version", b.version, "font", l.Font.Name, "multiplier", l.TextSizeMultiplier)
	return true
}

// InvalidateChapter drops the page index of one chapter.
func (b *Book) InvalidateChapter(idx int) error {
	c, err := b.Chapter(idx)
	if err != nil {
		return err
	}
	c.pages = nil
	delete(b.degraded, idx)
	b.truncateOffsets(idx + 1)
	return nil
}

func (b *Book) truncateOffsets(n int) {
	if n < 1 {
		n = 1
	}
	if len(b.offsets) > n {
		b.offsets = b.offsets[:n]
	}
}

func (b *Book) current(c *Chapter) bool {
	return c.pages != nil && c.pages.Version == b.version
}

// IsPaginated reports whether chapter idx has a page index for the current layout.
func (b *Book) IsPaginated(idx int) bool {
	c, err := b.Chapter(idx)
	return err == nil && b.current(c)
}

// Index returns the page index of chapter idx. With build false an unpaginated chapter
// yields ErrUnpaginatedChapter instead of being laid out.
func (b *Book) Index(idx int, build bool) (Index, error) {
	c, err := b.Chapter(idx)
	if err != nil {
		return Index{}, err
	}
	if !b.current(c) && !build {
		return Index{}, newError(CodeUnpaginatedChapter, "chapter %d not paginated", idx)
	}
	ix, err := b.ensure(c)
	if err != nil {
		return Index{}, err
	}
	return *ix, nil
}

func (b *Book) ensure(c *Chapter) (*Index, error) {
	if b.current(c) {
		return c.pages, nil
	}
	ix, err := Build(c.text, b.layout, b.probe)
	if err != nil {
		return nil, err
	}
	b.install(c, ix)
	return c.pages, nil
}

func (b *Book) install(c *Chapter, ix Index) {
	ix.Version = b.version
	c.pages = &ix
	b.truncateOffsets(c.Index + 1)
	if ix.Degraded > 0 {
		b.degraded[c.Index] = ix.Degraded
		b.logger.Warn("degraded layout", "chapter", c.Index, "forced", ix.Degraded, "page", b.layout.Page)
	} else {
		delete(b.degraded, c.Index)
	}
	b.logger.Debug("paginated chapter", "chapter", c.Index, "pages", ix.Len(), "version", b.version)
}

// PageCountOf returns the number of pages of chapter idx, paginating it if needed.
func (b *Book) PageCountOf(idx int) (int, error) {
	ix, err := b.Index(idx, true)
	if err != nil {
		return 0, err
	}
	return ix.Len(), nil
}

// PageOffset returns the number of pages before chapter idx. It is absent until chapters
// 0..idx are paginated under the current layout.
func (b *Book) PageOffset(idx int) (int, bool) {
	c, err := b.Chapter(idx)
	if err != nil || !b.current(c) {
		return 0, false
	}
	b.extendOffsets()
	if idx < len(b.offsets) {
		return b.offsets[idx], true
	}
	return 0, false
}

func (b *Book) extendOffsets() {
	for i := len(b.offsets); i < len(b.chapters); i++ {
		prev := b.chapters[i-1]
		if !b.current(prev) {
			return
		}
		b.offsets = append(b.offsets, b.offsets[i-1]+prev.pages.Len())
	}
}

// EnsurePageOffset paginates chapters 0..idx as needed and returns the page offset of idx.
func (b *Book) EnsurePageOffset(idx int) (int, error) {
	if _, err := b.Chapter(idx); err != nil {
		return 0, err
	}
	for i := 0; i <= idx; i++ {
		if _, err := b.ensure(b.chapters[i]); err != nil {
			return 0, err
		}
	}
	off, ok := b.PageOffset(idx)
	if !ok {
		return 0, newError(CodeUnpaginatedChapter, "page offset of chapter %d unavailable", idx)
	}
	return off, nil
}

// PageCount returns the number of pages in the whole book, paginating every chapter.
func (b *Book) PageCount() (int, error) {
	last := len(b.chapters) - 1
	off, err := b.EnsurePageOffset(last)
	if err != nil {
		return 0, err
	}
	return off + b.chapters[last].pages.Len(), nil
}

// KnownPageCount returns the book page count if every chapter is paginated.
func (b *Book) KnownPageCount() (int, bool) {
	last := len(b.chapters) - 1
	off, ok := b.PageOffset(last)
	if !ok {
		return 0, false
	}
	return off + b.chapters[last].pages.Len(), true
}

// Degraded returns the chapters whose current page index needed forced consumption.
func (b *Book) Degraded() []int {
	out := make([]int, 0, len(b.degraded))
	for idx := range b.degraded {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
