package sqlite

import (
	"context"
	"fmt"

	"github.com/metcalfc/folio/internal/paging"
)

func scanBookmark(scanner interface{ Scan(dest ...any) error }) (paging.Bookmark, error) {
	var (
		bm       paging.Bookmark
		markTime string
	)
	err := scanner.Scan(&bm.ChapterIdx, &bm.TextLocation, &markTime, &bm.ChapterName, &bm.Content)
	if err != nil {
		return paging.Bookmark{}, err
	}
	bm.MarkTime, err = parseTime(markTime)
	if err != nil {
		return paging.Bookmark{}, err
	}
	return bm, nil
}

// ListBookmarks returns every bookmark of a book in reading order.
func (s *Store) ListBookmarks(ctx context.Context, bookKey string) ([]paging.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chapter_idx, text_location, mark_time, chapter_name, content
		FROM bookmarks
		WHERE book_key = ?
		ORDER BY chapter_idx, text_location`,
		bookKey)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var out []paging.Bookmark
	for rows.Next() {
		bm, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, bm)
	}
	return out, rows.Err()
}

// InsertBookmark stores a bookmark. A bookmark already at the same position is kept.
func (s *Store) InsertBookmark(ctx context.Context, bookKey string, bm paging.Bookmark) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bookmarks (book_key, chapter_idx, text_location, mark_time, chapter_name, content)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (book_key, chapter_idx, text_location) DO NOTHING`,
		bookKey, bm.ChapterIdx, bm.TextLocation, formatTime(bm.MarkTime), bm.ChapterName, bm.Content)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Debug("bookmark exists", "book", bookKey, "chapter", bm.ChapterIdx, "location", bm.TextLocation)
	}
	return nil
}

// DeleteBookmarks removes the chapter's bookmarks whose offset lies in r. An empty range
// removes a bookmark exactly at its location.
func (s *Store) DeleteBookmarks(ctx context.Context, bookKey string, chapterIdx int, r paging.Range) (int, error) {
	end := r.End()
	if r.IsEmpty() {
		end = r.Location + 1
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM bookmarks
		WHERE book_key = ? AND chapter_idx = ? AND text_location >= ? AND text_location < ?`,
		bookKey, chapterIdx, r.Location, end)
	if err != nil {
		return 0, fmt.Errorf("delete bookmarks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
