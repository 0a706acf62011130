package paging

import "fmt"

// Page is one laid-out page. DisplayPageIdx is the 1-based page number across the book, or
// 0 when the pages before this chapter have not been counted yet.
type Page struct {
	ChapterIdx     int   `json:"chapter_idx"`
	PageIdx        int   `json:"page_idx"`
	Range          Range `json:"range"`
	DisplayPageIdx int   `json:"display_page_idx"`
}

// Same reports whether p and q address the same page and text.
func (p Page) Same(q Page) bool {
	return p.ChapterIdx == q.ChapterIdx && p.PageIdx == q.PageIdx && p.Range == q.Range
}

func (p Page) String() string {
	return fmt.Sprintf("chapter %d page %d %s", p.ChapterIdx, p.PageIdx, p.Range)
}

func (b *Book) page(c *Chapter, pageIdx int) Page {
	p := Page{
		ChapterIdx: c.Index,
		PageIdx:    pageIdx,
		Range:      c.pages.Ranges[pageIdx],
	}
	if off, ok := b.PageOffset(c.Index); ok {
		p.DisplayPageIdx = off + pageIdx + 1
	}
	return p
}
