package paging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageOutOfRange(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(100), 250), nil)

	_, err := r.Page(0, 3)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = r.Page(0, -1)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = r.Page(1, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestRoundTrip(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(97), 1000, 0, 97, 98, 5000), nil)
	b := r.Book()

	for ch := 0; ch < b.ChapterCount(); ch++ {
		n, err := b.PageCountOf(ch)
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			p, err := r.Page(ch, i)
			require.NoError(t, err)
			q, err := r.PageContaining(ch, p.Range.Location)
			require.NoError(t, err)
			assert.True(t, p.Same(q), "round trip of %s gave %s", p, q)

			if !p.Range.IsEmpty() {
				last, err := r.PageContaining(ch, p.Range.End()-1)
				require.NoError(t, err)
				assert.True(t, p.Same(last))
			}
		}
	}
}

func TestPageContainingEndOfText(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(300), 1000, 0), nil)

	p, err := r.PageContaining(0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, p.PageIdx)

	p, err = r.PageContaining(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PageIdx)
	assert.Equal(t, Range{}, p.Range)
}

func TestStaleAnchor(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(300), 1000), nil)

	_, err := r.PageContaining(0, 1001)
	require.ErrorIs(t, err, ErrStaleAnchor)
	_, err = r.PageContaining(0, -5)
	require.ErrorIs(t, err, ErrStaleAnchor)

	p, err := r.Anchor(0, 5000)
	require.NoError(t, err)
	assert.Equal(t, 3, p.PageIdx)

	p, err = r.Anchor(0, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, p.PageIdx)
}

func TestDisplayIndexMonotonic(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(64), 100, 0, 640, 65, 1), nil)
	b := r.Book()
	_, err := b.PageCount()
	require.NoError(t, err)

	want := 1
	for ch := 0; ch < b.ChapterCount(); ch++ {
		n, _ := b.PageCountOf(ch)
		for i := 0; i < n; i++ {
			p, err := r.Page(ch, i)
			require.NoError(t, err)
			assert.Equal(t, want, p.DisplayPageIdx, "%s", p)
			want++
		}
	}
	total, _ := b.PageCount()
	assert.Equal(t, total, want-1)
}

func TestDisplayIndexUnknownUntilPaginated(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(100), 300, 300), nil)

	p, err := r.Page(1, 1)
	require.NoError(t, err)
	assert.Zero(t, p.DisplayPageIdx)

	p, err = r.WithDisplay(p)
	require.NoError(t, err)
	assert.Equal(t, 5, p.DisplayPageIdx)
}

func TestChapterForGlobalPage(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(100), 250, 0, 300), nil)

	tests := []struct {
		global  int
		chapter int
		page    int
	}{
		{0, 0, 0},
		{2, 0, 2},
		{3, 1, 0},
		{4, 2, 0},
		{6, 2, 2},
	}
	for _, tt := range tests {
		c, err := r.ChapterForGlobalPage(tt.global)
		require.NoError(t, err)
		assert.Equal(t, tt.chapter, c.Index, "global %d", tt.global)

		p, err := r.PageForGlobalIndex(tt.global)
		require.NoError(t, err)
		assert.Equal(t, tt.page, p.PageIdx)
		assert.Equal(t, tt.global+1, p.DisplayPageIdx)
	}

	_, err := r.ChapterForGlobalPage(7)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = r.ChapterForGlobalPage(-1)
	require.ErrorIs(t, err, ErrOutOfRange)

	p, err := r.PageForDisplayIndex(5)
	require.NoError(t, err)
	assert.Equal(t, 2, p.ChapterIdx)
	assert.Equal(t, 0, p.PageIdx)
}

func TestChapterForGlobalPagePaginatesOnlyWhatItNeeds(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(100), 250, 300, 400), nil)

	c, err := r.ChapterForGlobalPage(4)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Index)
	assert.False(t, r.Book().IsPaginated(2))
}

func TestNextPrevCrossChapters(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(100), 150, 0, 100), nil)

	p, err := r.Page(0, 0)
	require.NoError(t, err)

	var seen []Page
	for {
		seen = append(seen, p)
		next, ok, err := r.Next(p)
		require.NoError(t, err)
		if !ok {
			break
		}
		p = next
	}
	require.Len(t, seen, 4)
	assert.Equal(t, [][2]int{{0, 0}, {0, 1}, {1, 0}, {2, 0}}, coords(seen))

	var back []Page
	for {
		back = append(back, p)
		prev, ok, err := r.Prev(p)
		require.NoError(t, err)
		if !ok {
			break
		}
		p = prev
	}
	assert.Equal(t, [][2]int{{2, 0}, {1, 0}, {0, 1}, {0, 0}}, coords(back))
}

func coords(pages []Page) [][2]int {
	out := make([][2]int, len(pages))
	for i, p := range pages {
		out[i] = [2]int{p.ChapterIdx, p.PageIdx}
	}
	return out
}

func TestResolveRecordExactMatch(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(150), 100, 100, 1000), nil)

	rec := Record{ChapterIdx: 2, PageIdx: 3, Range: NewRange(450, 600)}
	p, err := r.ResolveRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, 3, p.PageIdx)
	assert.Equal(t, rec.Range, p.Range)
}

func TestResolveRecordAfterLayoutChange(t *testing.T) {
	b := newTestBook(t, scaled(150), 100, 100, 1000)
	r := NewResolver(b, nil)

	saved, err := r.Page(2, 3)
	require.NoError(t, err)
	require.Equal(t, NewRange(450, 600), saved.Range)
	rec := RecordOf(saved)

	// 150 runes per page at 100%, 75 at 200%.
	b.SetLayout(testLayout(200))

	p, err := r.ResolveRecord(rec)
	require.NoError(t, err)
	assert.True(t, p.Range.Contains(450), "page %s should cover 450", p)
	assert.Equal(t, 6, p.PageIdx)
}

func TestResolveRecordPartialOverlapPicksFirstFollowingPage(t *testing.T) {
	b := newTestBook(t, capacity(100), 1000)
	r := NewResolver(b, nil)

	// Saved range straddles pages [400,500) and [500,600).
	p, err := r.ResolveRecord(Record{ChapterIdx: 0, PageIdx: 9, Range: NewRange(450, 550)})
	require.NoError(t, err)
	assert.Equal(t, NewRange(400, 500), p.Range)
}

func TestResolveRecordStale(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(100), 300), nil)

	p, err := r.ResolveRecord(Record{ChapterIdx: 7, PageIdx: 2, Range: NewRange(200, 300)})
	require.NoError(t, err)
	assert.Equal(t, 0, p.ChapterIdx)
	assert.Equal(t, 0, p.PageIdx)

	p, err = r.ResolveRecord(Record{ChapterIdx: 0, PageIdx: 40, Range: NewRange(4000, 4100)})
	require.NoError(t, err)
	assert.Equal(t, 2, p.PageIdx)
}

func TestBookmarkAtZeroAlwaysFirstPage(t *testing.T) {
	b := newTestBook(t, scaled(120), 900, 0)
	marks := NewBookmarks([]Bookmark{
		{ChapterIdx: 0, TextLocation: 0},
		{ChapterIdx: 1, TextLocation: 0},
	})
	r := NewResolver(b, marks)

	for _, m := range []int{50, 100, 170, 300} {
		b.SetLayout(testLayout(m))
		for _, bm := range marks.List() {
			p, err := r.ResolveBookmark(bm)
			require.NoError(t, err)
			assert.Equal(t, 0, p.PageIdx, "multiplier %d", m)
			assert.True(t, r.IsBookmarked(p))
		}
	}
}

func TestIsBookmarkedUsesRangeContainment(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(100), 300), NewBookmarks([]Bookmark{
		{ChapterIdx: 0, TextLocation: 150, MarkTime: time.Unix(0, 0)},
	}))

	for i, want := range []bool{false, true, false} {
		p, err := r.Page(0, i)
		require.NoError(t, err)
		assert.Equal(t, want, r.IsBookmarked(p), "page %d", i)
	}
}

func TestProgressAndSpans(t *testing.T) {
	r := NewResolver(newTestBook(t, capacity(100), 250, 0, 600), nil)

	p, err := r.Page(2, 2)
	require.NoError(t, err)
	pct, err := r.Progress(p)
	require.NoError(t, err)
	assert.Equal(t, 70, pct)

	spans, err := r.Spans()
	require.NoError(t, err)
	assert.Equal(t, []ChapterSpan{
		{ChapterIdx: 0, Title: "Chapter 1", First: 1, Last: 3},
		{ChapterIdx: 1, Title: "Chapter 2", First: 4, Last: 4},
		{ChapterIdx: 2, Title: "Chapter 3", First: 5, Last: 10},
	}, spans)
}
