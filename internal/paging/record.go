package paging

// Record is the resume point of a book: the page shown when reading stopped and the text
// range it covered at that time.
type Record struct {
	ChapterIdx int   `json:"chapter_idx"`
	PageIdx    int   `json:"page_idx"`
	Range      Range `json:"range"`
}

// RecordOf returns the record for page p.
func RecordOf(p Page) Record {
	return Record{ChapterIdx: p.ChapterIdx, PageIdx: p.PageIdx, Range: p.Range}
}

// Matches reports whether the record points at page p.
func (r Record) Matches(p Page) bool {
	return r.ChapterIdx == p.ChapterIdx && r.PageIdx == p.PageIdx
}

// RecordStore keeps one reading record per book. SetReadingRecord replaces any previous one.
type RecordStore interface {
	ReadingRecord(bookKey string) (Record, bool, error)
	SetReadingRecord(bookKey string, rec Record) error
}
