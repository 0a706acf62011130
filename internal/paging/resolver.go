package paging

import "sort"

// Resolver translates between (chapter, page index), (chapter, rune offset) and global page
// numbers. Every feature that needs a page for an offset or a number for a page goes through
// it; chapters are paginated on demand.
type Resolver struct {
	book  *Book
	marks *Bookmarks
}

// NewResolver returns a resolver over b. A nil marks set is treated as empty.
func NewResolver(b *Book, marks *Bookmarks) *Resolver {
	if marks == nil {
		marks = NewBookmarks(nil)
	}
	return &Resolver{book: b, marks: marks}
}

// Book returns the underlying book.
func (r *Resolver) Book() *Book {
	return r.book
}

// Bookmarks returns the bookmark set consulted by IsBookmarked.
func (r *Resolver) Bookmarks() *Bookmarks {
	return r.marks
}

func (r *Resolver) chapter(ch int) (*Chapter, *Index, error) {
	c, err := r.book.Chapter(ch)
	if err != nil {
		return nil, nil, err
	}
	ix, err := r.book.ensure(c)
	if err != nil {
		return nil, nil, err
	}
	return c, ix, nil
}

// Page returns page pageIdx of chapter ch.
func (r *Resolver) Page(ch, pageIdx int) (Page, error) {
	c, ix, err := r.chapter(ch)
	if err != nil {
		return Page{}, err
	}
	if pageIdx < 0 || pageIdx >= ix.Len() {
		return Page{}, outOfRange("page", pageIdx, ix.Len())
	}
	return r.book.page(c, pageIdx), nil
}

// LastPage returns the final page of chapter ch.
func (r *Resolver) LastPage(ch int) (Page, error) {
	c, ix, err := r.chapter(ch)
	if err != nil {
		return Page{}, err
	}
	return r.book.page(c, ix.Len()-1), nil
}

// PageContaining returns the page whose range contains offset. The end of the text belongs
// to the last page. Offsets outside [0, len] fail with ErrStaleAnchor.
func (r *Resolver) PageContaining(ch, offset int) (Page, error) {
	c, ix, err := r.chapter(ch)
	if err != nil {
		return Page{}, err
	}
	if offset < 0 || offset > c.Len() {
		return Page{}, newError(CodeStaleAnchor, "offset %d outside chapter %d of length %d", offset, ch, c.Len())
	}
	if offset == c.Len() {
		return r.book.page(c, ix.Len()-1), nil
	}
	i := sort.Search(ix.Len(), func(i int) bool {
		return ix.Ranges[i].End() > offset
	})
	return r.book.page(c, i), nil
}

// Anchor is PageContaining with stale offsets clamped to the chapter bounds.
func (r *Resolver) Anchor(ch, offset int) (Page, error) {
	c, err := r.book.Chapter(ch)
	if err != nil {
		return Page{}, err
	}
	clamped := Clamp(offset, c.Len())
	if clamped != offset {
		r.book.logger.Warn("stale anchor clamped", "chapter", ch, "offset", offset, "clamped", clamped)
	}
	return r.PageContaining(ch, clamped)
}

// WithDisplay fills in p.DisplayPageIdx, paginating earlier chapters if needed.
func (r *Resolver) WithDisplay(p Page) (Page, error) {
	off, err := r.book.EnsurePageOffset(p.ChapterIdx)
	if err != nil {
		return Page{}, err
	}
	p.DisplayPageIdx = off + p.PageIdx + 1
	return p, nil
}

// ChapterForGlobalPage returns the chapter holding the 0-based global page index. Chapters
// up to and including the result are paginated on demand.
func (r *Resolver) ChapterForGlobalPage(global int) (*Chapter, error) {
	if global < 0 {
		return nil, outOfRange("global page", global, 0)
	}
	for i := 0; i < r.book.ChapterCount(); i++ {
		off, err := r.book.EnsurePageOffset(i)
		if err != nil {
			return nil, err
		}
		if global < off+r.book.chapters[i].pages.Len() {
			return r.book.chapters[i], nil
		}
	}
	total, _ := r.book.KnownPageCount()
	return nil, outOfRange("global page", global, total)
}

// PageForGlobalIndex returns the page at a 0-based global index.
func (r *Resolver) PageForGlobalIndex(global int) (Page, error) {
	c, err := r.ChapterForGlobalPage(global)
	if err != nil {
		return Page{}, err
	}
	off, _ := r.book.PageOffset(c.Index)
	return r.Page(c.Index, global-off)
}

// PageForDisplayIndex returns the page with the given 1-based page number.
func (r *Resolver) PageForDisplayIndex(display int) (Page, error) {
	return r.PageForGlobalIndex(display - 1)
}

// Next returns the page after p, moving into the next chapter at a chapter end.
func (r *Resolver) Next(p Page) (Page, bool, error) {
	count, err := r.book.PageCountOf(p.ChapterIdx)
	if err != nil {
		return Page{}, false, err
	}
	if p.PageIdx+1 < count {
		next, err := r.Page(p.ChapterIdx, p.PageIdx+1)
		return next, err == nil, err
	}
	if p.ChapterIdx+1 < r.book.ChapterCount() {
		next, err := r.Page(p.ChapterIdx+1, 0)
		return next, err == nil, err
	}
	return Page{}, false, nil
}

// Prev returns the page before p, moving to the last page of the previous chapter at a
// chapter start.
func (r *Resolver) Prev(p Page) (Page, bool, error) {
	if p.PageIdx > 0 {
		prev, err := r.Page(p.ChapterIdx, p.PageIdx-1)
		return prev, err == nil, err
	}
	if p.ChapterIdx > 0 {
		prev, err := r.LastPage(p.ChapterIdx - 1)
		return prev, err == nil, err
	}
	return Page{}, false, nil
}

// ResolveRecord finds the page a saved record points at. If the saved page no longer covers
// the saved range, the first page ending after the saved start wins.
func (r *Resolver) ResolveRecord(rec Record) (Page, error) {
	ch := rec.ChapterIdx
	if n := r.book.ChapterCount(); ch < 0 || ch >= n {
		clamped := max(0, min(ch, n-1))
		r.book.logger.Warn("stale reading record chapter", "chapter", ch, "clamped", clamped)
		return r.Page(clamped, 0)
	}

	if p, err := r.Page(ch, rec.PageIdx); err == nil && p.Range == rec.Range {
		return p, nil
	}

	c, ix, err := r.chapter(ch)
	if err != nil {
		return Page{}, err
	}
	for i, pr := range ix.Ranges {
		if pr.Follows(rec.Range.Location) {
			return r.book.page(c, i), nil
		}
	}
	return r.Anchor(ch, rec.Range.Location)
}

// ResolveBookmark returns the page currently holding the bookmark.
func (r *Resolver) ResolveBookmark(bm Bookmark) (Page, error) {
	return r.Anchor(bm.ChapterIdx, bm.TextLocation)
}

// IsBookmarked reports whether any bookmark offset falls inside p.
func (r *Resolver) IsBookmarked(p Page) bool {
	return r.marks.In(p.ChapterIdx, p.Range)
}

// Progress returns how far into the book p is, in whole percent.
func (r *Resolver) Progress(p Page) (int, error) {
	total, err := r.book.PageCount()
	if err != nil {
		return 0, err
	}
	p, err = r.WithDisplay(p)
	if err != nil {
		return 0, err
	}
	return p.DisplayPageIdx * 100 / total, nil
}

// ChapterSpan is the 1-based page number range of one chapter.
type ChapterSpan struct {
	ChapterIdx int
	Title      string
	First      int
	Last       int
}

// Spans returns the page number range of every chapter, paginating the whole book.
func (r *Resolver) Spans() ([]ChapterSpan, error) {
	if _, err := r.book.PageCount(); err != nil {
		return nil, err
	}
	spans := make([]ChapterSpan, 0, r.book.ChapterCount())
	for _, c := range r.book.chapters {
		off, _ := r.book.PageOffset(c.Index)
		spans = append(spans, ChapterSpan{
			ChapterIdx: c.Index,
			Title:      c.Title,
			First:      off + 1,
			Last:       off + c.pages.Len(),
		})
	}
	return spans, nil
}
