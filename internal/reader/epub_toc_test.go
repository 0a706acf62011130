package reader

import (
	"testing"

	"github.com/metcalfc/folio/internal/paging"
)

func TestEPUBTOC(t *testing.T) {
	path := writeEPUB(t, t.TempDir())

	f := &EPUBFormat{}
	toc, err := f.TOC(path)
	if err != nil {
		t.Fatalf("TOC extraction failed: %v", err)
	}

	want := []paging.TOCEntry{
		{Title: "Opening", Href: "text/ch1.xhtml", Level: 0},
		{Title: "Second Part", Href: "text/ch1.xhtml#part2", Level: 1},
		{Title: "Closing", Href: "text/ch2.xhtml", Level: 0},
	}
	if len(toc) != len(want) {
		t.Fatalf("Expected %d TOC entries, got %d", len(want), len(toc))
	}
	for i := range want {
		if toc[i] != want[i] {
			t.Errorf("Entry %d = %+v, want %+v", i, toc[i], want[i])
		}
	}
}

func TestTOCTitles(t *testing.T) {
	titles := tocTitles([]paging.TOCEntry{
		{Title: "Part", Href: "OEBPS/part.xhtml#top"},
		{Title: "Later", Href: "OEBPS/part.xhtml#later"},
		{Title: "Notes", Href: "notes.xhtml"},
	})

	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"OEBPS/part.xhtml", "Part", true},
		{"part.xhtml", "Part", true},
		{"text/part.xhtml", "Part", true},
		{"notes.xhtml", "Notes", true},
		{"missing.xhtml", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := lookupTitle(titles, tt.href)
		if got != tt.want || ok != tt.ok {
			t.Errorf("lookupTitle(%q) = %q, %v; want %q, %v", tt.href, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseNavDocument(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<body>
  <nav epub:type="landmarks"><ol><li><a href="cover.xhtml">Cover</a></li></ol></nav>
  <nav epub:type="toc">
    <h1>Contents</h1>
    <ol>
      <li><a href="ch1.xhtml">Chapter
        One</a>
        <ol><li><a href="ch1.xhtml#s1">Scene</a></li></ol>
      </li>
      <li><span>Appendix</span></li>
    </ol>
  </nav>
</body>
</html>`

	toc, err := parseNavDocument([]byte(doc))
	if err != nil {
		t.Fatalf("parseNavDocument: %v", err)
	}
	want := []paging.TOCEntry{
		{Title: "Chapter One", Href: "ch1.xhtml", Level: 0},
		{Title: "Scene", Href: "ch1.xhtml#s1", Level: 1},
		{Title: "Appendix", Level: 0},
	}
	if len(toc) != len(want) {
		t.Fatalf("got %+v, want %+v", toc, want)
	}
	for i := range want {
		if toc[i] != want[i] {
			t.Errorf("Entry %d = %+v, want %+v", i, toc[i], want[i])
		}
	}

	if _, err := parseNavDocument([]byte("<html><body><p>none</p></body></html>")); err == nil {
		t.Error("expected error for document without toc nav")
	}
}

func TestResolveHref(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{".", "text/ch1.xhtml", "text/ch1.xhtml"},
		{"toc", "../text/ch1.xhtml#p2", "text/ch1.xhtml#p2"},
		{"nav", "ch1.xhtml", "nav/ch1.xhtml"},
		{"toc", "", ""},
		{"toc", "https://example.com/x", "https://example.com/x"},
	}
	for _, tt := range tests {
		if got := resolveHref(tt.base, tt.href); got != tt.want {
			t.Errorf("resolveHref(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}
