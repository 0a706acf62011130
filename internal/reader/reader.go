// Package reader parses books into chapters and runs a paged reading session over them.
package reader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/metcalfc/folio/internal/paging"
)

// Options configures a reading session. Nil stores disable persistence.
type Options struct {
	// BookKey identifies the book in the stores.
	BookKey   string
	Records   paging.RecordStore
	Bookmarks paging.BookmarkStore
	// Restore opens the book at its saved reading record.
	Restore bool
	Logger  *slog.Logger
	Now     func() time.Time
}

// Reader holds the state for a paged reading session. It is not safe for concurrent use.
type Reader struct {
	book     *paging.Book
	resolver *paging.Resolver
	ctrl     *paging.Controller
	marks    *paging.Bookmarks
	cjk      bool

	key       string
	records   paging.RecordStore
	bookmarks paging.BookmarkStore
	saved     *paging.Record
	logger    *slog.Logger
	now       func() time.Time
}

// Open starts a session on src. It loads the book's bookmarks and, when asked, resumes at
// the saved reading record.
func Open(ctx context.Context, src paging.Source, layout paging.Layout, probe paging.Probe, opts Options) (*Reader, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	book, err := paging.NewBook(src, layout, probe, paging.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	r := &Reader{
		book:      book,
		cjk:       paging.IsCJK(src.Language),
		key:       opts.BookKey,
		records:   opts.Records,
		bookmarks: opts.Bookmarks,
		logger:    logger,
		now:       now,
	}

	var list []paging.Bookmark
	if r.bookmarks != nil {
		if list, err = r.bookmarks.ListBookmarks(ctx, r.key); err != nil {
			return nil, fmt.Errorf("failed to load bookmarks: %w", err)
		}
	}
	r.marks = paging.NewBookmarks(list)
	r.resolver = paging.NewResolver(book, r.marks)

	start, err := r.startPage(opts.Restore)
	if err != nil {
		return nil, err
	}
	r.ctrl = paging.NewController(r.resolver, start)
	return r, nil
}

func (r *Reader) startPage(restore bool) (paging.Page, error) {
	if restore && r.records != nil {
		rec, ok, err := r.records.ReadingRecord(r.key)
		if err != nil {
			r.logger.Warn("failed to read reading record", "book", r.key, "error", err)
		} else if ok {
			r.saved = &rec
			return r.resolver.ResolveRecord(rec)
		}
	}
	return r.resolver.Page(0, 0)
}

// Book returns the paginated book.
func (r *Reader) Book() *paging.Book {
	return r.book
}

// State returns the re-pagination state.
func (r *Reader) State() paging.State {
	return r.ctrl.State()
}

// Current returns the displayed page. DisplayPageIdx is filled in only when every earlier
// chapter is already paginated.
func (r *Reader) Current() paging.Page {
	p := r.ctrl.Current()
	if off, ok := r.book.PageOffset(p.ChapterIdx); ok {
		p.DisplayPageIdx = off + p.PageIdx + 1
	}
	return p
}

// Text returns the text of the displayed page.
func (r *Reader) Text() string {
	p := r.ctrl.Current()
	c, err := r.book.Chapter(p.ChapterIdx)
	if err != nil {
		return ""
	}
	return c.Snippet(p.Range)
}

// Chapter returns the chapter of the displayed page.
func (r *Reader) Chapter() *paging.Chapter {
	c, _ := r.book.Chapter(r.ctrl.Current().ChapterIdx)
	return c
}

// Next turns to the next page. It returns false at the end of the book.
func (r *Reader) Next() (bool, error) {
	p, ok, err := r.resolver.Next(r.ctrl.Current())
	if err != nil || !ok {
		return false, err
	}
	r.ctrl.Show(p)
	return true, nil
}

// Prev turns to the previous page. It returns false at the start of the book.
func (r *Reader) Prev() (bool, error) {
	p, ok, err := r.resolver.Prev(r.ctrl.Current())
	if err != nil || !ok {
		return false, err
	}
	r.ctrl.Show(p)
	return true, nil
}

// JumpToChapter shows the first page of a chapter.
func (r *Reader) JumpToChapter(idx int) error {
	p, err := r.resolver.Page(idx, 0)
	if err != nil {
		return err
	}
	r.ctrl.Show(p)
	return nil
}

// JumpToTOC shows the first page of the chapter a TOC entry points to.
func (r *Reader) JumpToTOC(entry int) error {
	idx, err := r.book.TOCChapter(entry)
	if err != nil {
		return err
	}
	return r.JumpToChapter(idx)
}

// CurrentTOCEntry returns the TOC entry of the displayed chapter, or -1.
func (r *Reader) CurrentTOCEntry() int {
	pos, err := r.book.TOCPosition(r.ctrl.Current().ChapterIdx)
	if err != nil {
		return -1
	}
	return pos
}

// Seek shows the page with the given 1-based page number.
func (r *Reader) Seek(display int) error {
	p, err := r.resolver.PageForDisplayIndex(display)
	if err != nil {
		return err
	}
	r.ctrl.Show(p)
	return nil
}

// SeekTip returns the chapter title and progress a scrubber at page display would show.
func (r *Reader) SeekTip(display int) (string, int, error) {
	c, err := r.resolver.ChapterForGlobalPage(display - 1)
	if err != nil {
		return "", 0, err
	}
	total, err := r.book.PageCount()
	if err != nil {
		return "", 0, err
	}
	return c.Title, display * 100 / total, nil
}

// PageCount returns the total number of pages, paginating the whole book if needed.
func (r *Reader) PageCount() (int, error) {
	return r.book.PageCount()
}

// Progress returns how far into the book the displayed page is, in whole percent.
func (r *Reader) Progress() (int, error) {
	return r.resolver.Progress(r.ctrl.Current())
}

// Bookmarks returns every bookmark, ordered by position.
func (r *Reader) Bookmarks() []paging.Bookmark {
	return r.marks.List()
}

// Bookmarked reports whether the displayed page holds a bookmark.
func (r *Reader) Bookmarked() bool {
	return r.resolver.IsBookmarked(r.ctrl.Current())
}

// ToggleBookmark removes every bookmark on the displayed page, or adds one at its start when
// there is none. It returns true if a bookmark was added.
func (r *Reader) ToggleBookmark(ctx context.Context) (bool, error) {
	p := r.ctrl.Current()
	if r.resolver.IsBookmarked(p) {
		return false, r.deleteRange(ctx, p.ChapterIdx, p.Range)
	}

	c, err := r.book.Chapter(p.ChapterIdx)
	if err != nil {
		return false, err
	}
	bm := paging.NewBookmark(c, p, r.cjk, r.now())
	if r.bookmarks != nil {
		if err := r.bookmarks.InsertBookmark(ctx, r.key, bm); err != nil {
			return false, fmt.Errorf("failed to save bookmark: %w", err)
		}
	}
	r.marks.Add(bm)
	r.logger.Debug("bookmark added", "chapter", bm.ChapterIdx, "location", bm.TextLocation)
	return true, nil
}

// DeleteBookmark removes a single bookmark.
func (r *Reader) DeleteBookmark(ctx context.Context, bm paging.Bookmark) error {
	return r.deleteRange(ctx, bm.ChapterIdx, paging.Range{Location: bm.TextLocation, Length: 1})
}

func (r *Reader) deleteRange(ctx context.Context, chapterIdx int, rg paging.Range) error {
	if r.bookmarks != nil {
		if _, err := r.bookmarks.DeleteBookmarks(ctx, r.key, chapterIdx, rg); err != nil {
			return fmt.Errorf("failed to delete bookmarks: %w", err)
		}
	}
	removed := r.marks.RemoveRange(chapterIdx, rg)
	r.logger.Debug("bookmarks removed", "chapter", chapterIdx, "range", rg.String(), "count", len(removed))
	return nil
}

// JumpToBookmark shows the page currently holding bm.
func (r *Reader) JumpToBookmark(bm paging.Bookmark) error {
	p, err := r.resolver.ResolveBookmark(bm)
	if err != nil {
		return err
	}
	r.ctrl.Show(p)
	return nil
}

// TextSize returns the text size multiplier in percent.
func (r *Reader) TextSize() int {
	return r.book.Layout().TextSizeMultiplier
}

// SetTextSize re-paginates with a new text size multiplier, clamped to the supported range.
func (r *Reader) SetTextSize(m int) error {
	_, err := r.ctrl.SetTextSizeMultiplier(m)
	return err
}

// StepTextSize grows or shrinks the text by steps of paging.TextSizeMultiplierStep.
func (r *Reader) StepTextSize(steps int) error {
	return r.SetTextSize(r.TextSize() + steps*paging.TextSizeMultiplierStep)
}

// SetFont re-paginates with a new font family, keeping the font size.
func (r *Reader) SetFont(name string) error {
	f := r.book.Layout().Font
	f.Name = name
	_, err := r.ctrl.SetFont(f)
	return err
}

// Resize re-paginates for a new page rectangle.
func (r *Reader) Resize(page paging.Rect, margins paging.Insets) error {
	_, err := r.ctrl.SetGeometry(page, margins)
	return err
}

// LayoutWarning returns an error wrapping paging.ErrDegradedLayout while any paginated
// chapter had to force runes onto pages that could not fit them. Reading still works, so
// callers show it as a warning.
func (r *Reader) LayoutWarning() error {
	if d := r.book.Degraded(); len(d) > 0 {
		return fmt.Errorf("%w (%d chapters): use a larger page or smaller text", paging.ErrDegradedLayout, len(d))
	}
	return nil
}

// Install hands a background pagination result to the book. Stale results are dropped.
func (r *Reader) Install(built paging.Built) bool {
	return r.book.Install(built)
}

// Save stores the reading record. Nothing is written when the chapter and page are the same
// as the last saved record. It returns true if a record was written.
func (r *Reader) Save() (bool, error) {
	if r.records == nil {
		return false, nil
	}
	p := r.ctrl.Current()
	// Only chapter and page are compared. After a re-layout that keeps the page index, the old
	// range still restores to the same page.
	if r.saved != nil && r.saved.Matches(p) {
		return false, nil
	}
	rec := paging.RecordOf(p)
	if err := r.records.SetReadingRecord(r.key, rec); err != nil {
		return false, fmt.Errorf("failed to save reading record: %w", err)
	}
	r.saved = &rec
	r.logger.Debug("reading record saved", "chapter", rec.ChapterIdx, "page", rec.PageIdx)
	return true, nil
}
