package paging

import (
	"context"
	"sort"
	"strings"
	"time"
)

const (
	previewRunes    = 50
	previewRunesCJK = 25
)

// Bookmark marks a rune offset in a chapter. It stores an offset rather than a page index so
// it survives re-pagination.
type Bookmark struct {
	ChapterIdx   int       `json:"chapter_idx"`
	TextLocation int       `json:"text_location"`
	MarkTime     time.Time `json:"mark_time"`
	ChapterName  string    `json:"chapter_name"`
	Content      string    `json:"content"`
}

// BookmarkKey is the identity of a bookmark: at most one per offset per chapter.
type BookmarkKey struct {
	ChapterIdx   int
	TextLocation int
}

// Key returns the bookmark identity.
func (bm Bookmark) Key() BookmarkKey {
	return BookmarkKey{ChapterIdx: bm.ChapterIdx, TextLocation: bm.TextLocation}
}

// BookmarkStore persists bookmarks per book.
type BookmarkStore interface {
	ListBookmarks(ctx context.Context, bookKey string) ([]Bookmark, error)
	InsertBookmark(ctx context.Context, bookKey string, bm Bookmark) error
	// DeleteBookmarks removes every bookmark of the chapter whose offset lies in r.
	DeleteBookmarks(ctx context.Context, bookKey string, chapterIdx int, r Range) (int, error)
}

// NewBookmark creates a bookmark at the start of page p with a short preview of its text.
func NewBookmark(c *Chapter, p Page, cjk bool, now time.Time) Bookmark {
	return Bookmark{
		ChapterIdx:   p.ChapterIdx,
		TextLocation: p.Range.Location,
		MarkTime:     now,
		ChapterName:  c.Title,
		Content:      Preview(c.Snippet(p.Range), cjk),
	}
}

// Preview shortens page text for a bookmark list. Western text is cut at the last space
// inside the first 50 runes; CJK text keeps its first 25 runes.
func Preview(text string, cjk bool) string {
	limit := previewRunes
	if cjk {
		limit = previewRunesCJK
	}
	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	s := strings.ReplaceAll(string(runes), "\n", "")
	if cjk {
		return s
	}
	if i := strings.LastIndex(s, " "); i != -1 {
		s = s[:i]
	}
	return s
}

// Bookmarks is the in-memory bookmark set of an open book.
type Bookmarks struct {
	byKey map[BookmarkKey]Bookmark
}

// NewBookmarks builds a set from stored bookmarks. Duplicate keys keep the first.
func NewBookmarks(list []Bookmark) *Bookmarks {
	s := &Bookmarks{byKey: make(map[BookmarkKey]Bookmark, len(list))}
	for _, bm := range list {
		s.Add(bm)
	}
	return s
}

// Add inserts bm. It returns false if a bookmark with the same key already exists.
func (s *Bookmarks) Add(bm Bookmark) bool {
	if _, ok := s.byKey[bm.Key()]; ok {
		return false
	}
	s.byKey[bm.Key()] = bm
	return true
}

// RemoveRange deletes the chapter's bookmarks whose offset is owned by r and returns them.
func (s *Bookmarks) RemoveRange(chapterIdx int, r Range) []Bookmark {
	var removed []Bookmark
	for k, bm := range s.byKey {
		if k.ChapterIdx == chapterIdx && r.Owns(k.TextLocation) {
			removed = append(removed, bm)
			delete(s.byKey, k)
		}
	}
	sortBookmarks(removed)
	return removed
}

// In reports whether any bookmark of the chapter lies in r.
func (s *Bookmarks) In(chapterIdx int, r Range) bool {
	for k := range s.byKey {
		if k.ChapterIdx == chapterIdx && r.Owns(k.TextLocation) {
			return true
		}
	}
	return false
}

// Len returns the number of bookmarks.
func (s *Bookmarks) Len() int {
	return len(s.byKey)
}

// List returns the bookmarks in reading order.
func (s *Bookmarks) List() []Bookmark {
	out := make([]Bookmark, 0, len(s.byKey))
	for _, bm := range s.byKey {
		out = append(out, bm)
	}
	sortBookmarks(out)
	return out
}

func sortBookmarks(list []Bookmark) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].ChapterIdx != list[j].ChapterIdx {
			return list[i].ChapterIdx < list[j].ChapterIdx
		}
		return list[i].TextLocation < list[j].TextLocation
	})
}
