package reader

import (
	"fmt"
	"io"
	"strings"

	"github.com/metcalfc/folio/internal/paging"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Extract reads every spine item as one chapter. Items that fail to open become empty
// chapters so spine positions and TOC targets stay aligned.
func (f *EPUBFormat) Extract(filename string) (paging.Source, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return paging.Source{}, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return paging.Source{}, fmt.Errorf("no rootfiles found in epub")
	}

	book := rc.Rootfiles[0]
	src := paging.Source{
		Title:    strings.TrimSpace(book.Metadata.Title),
		Language: strings.TrimSpace(book.Metadata.Language),
	}

	// A book without an NCX still reads; it just has no TOC.
	toc, _ := readTOC(filename, book)
	src.TOC = toc
	titles := tocTitles(toc)

	for i, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		ch := paging.SourceChapter{
			Title: fmt.Sprintf("Section %d", i+1),
			Href:  ref.Item.HREF,
		}
		if t, ok := lookupTitle(titles, ref.Item.HREF); ok {
			ch.Title = t
		}
		if text, err := readItem(ref.Item); err == nil {
			ch.Text = text
		}
		src.Chapters = append(src.Chapters, ch)
	}

	return src, nil
}

func readItem(item *epub.Item) (string, error) {
	r, err := item.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return extractTextFromHTML(string(data)), nil
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Section: true, atom.Article: true,
	atom.Hr: true, atom.Dt: true, atom.Dd: true, atom.Figcaption: true,
}

// extractTextFromHTML returns the body text with one line per block element and whitespace
// inside a block collapsed to single spaces.
func extractTextFromHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var (
		out   strings.Builder
		block strings.Builder
	)
	flush := func() {
		line := strings.Join(strings.Fields(block.String()), " ")
		block.Reset()
		if line == "" {
			return
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(line)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			block.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Head, atom.Script, atom.Style:
				return
			}
			if blockElements[n.DataAtom] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()
	return out.String()
}
