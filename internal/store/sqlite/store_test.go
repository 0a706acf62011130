package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/metcalfc/folio/internal/paging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='bookmarks'").Scan(&name)
	if err != nil {
		t.Errorf("table bookmarks not found: %v", err)
	}
}

func TestBookmarksRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)

	marks := []paging.Bookmark{
		{ChapterIdx: 2, TextLocation: 10, MarkTime: at, ChapterName: "Three", Content: "later"},
		{ChapterIdx: 0, TextLocation: 500, MarkTime: at, ChapterName: "One", Content: "middle"},
		{ChapterIdx: 0, TextLocation: 40, MarkTime: at, ChapterName: "One", Content: "early"},
	}
	for _, bm := range marks {
		if err := s.InsertBookmark(ctx, "book-a", bm); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := s.InsertBookmark(ctx, "book-b", marks[0]); err != nil {
		t.Fatalf("insert other book: %v", err)
	}

	// Duplicate position keeps the first bookmark.
	dup := marks[2]
	dup.Content = "duplicate"
	if err := s.InsertBookmark(ctx, "book-a", dup); err != nil {
		t.Fatalf("insert duplicate: %v", err)
	}

	got, err := s.ListBookmarks(ctx, "book-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bookmarks, got %d", len(got))
	}
	wantOrder := []int{40, 500, 10}
	for i, bm := range got {
		if bm.TextLocation != wantOrder[i] {
			t.Errorf("bookmark %d at %d, want %d", i, bm.TextLocation, wantOrder[i])
		}
	}
	if got[0].Content != "early" {
		t.Errorf("duplicate replaced content: %q", got[0].Content)
	}
	if !got[0].MarkTime.Equal(at) {
		t.Errorf("mark time %v, want %v", got[0].MarkTime, at)
	}
}

func TestDeleteBookmarksByRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, loc := range []int{0, 99, 100, 150, 199, 200} {
		bm := paging.Bookmark{ChapterIdx: 1, TextLocation: loc, MarkTime: time.Now()}
		if err := s.InsertBookmark(ctx, "book", bm); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	other := paging.Bookmark{ChapterIdx: 2, TextLocation: 150, MarkTime: time.Now()}
	if err := s.InsertBookmark(ctx, "book", other); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := s.DeleteBookmarks(ctx, "book", 1, paging.NewRange(100, 200))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d, want 3", n)
	}

	// An empty range deletes the bookmark at its location.
	n, err = s.DeleteBookmarks(ctx, "book", 1, paging.Range{Location: 0})
	if err != nil {
		t.Fatalf("delete empty range: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}

	got, err := s.ListBookmarks(ctx, "book")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var locs [][2]int
	for _, bm := range got {
		locs = append(locs, [2]int{bm.ChapterIdx, bm.TextLocation})
	}
	want := [][2]int{{1, 99}, {1, 200}, {2, 150}}
	if len(locs) != len(want) {
		t.Fatalf("remaining %v, want %v", locs, want)
	}
	for i := range want {
		if locs[i] != want[i] {
			t.Errorf("remaining %v, want %v", locs, want)
			break
		}
	}
}

func TestListBookmarksEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ListBookmarks(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no bookmarks, got %d", len(got))
	}
}

var _ paging.BookmarkStore = (*Store)(nil)
