package reader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/metcalfc/folio/internal/paging"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const ncxMediaType = "application/x-dtbncx+xml"

var errNoTOC = errors.New("no table of contents in epub")

type ncx struct {
	Points []navPoint `xml:"navMap>navPoint"`
}

type navPoint struct {
	Label    string     `xml:"navLabel>text"`
	Content  navContent `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// TOC extracts the flattened table of contents from an EPUB file.
func (f *EPUBFormat) TOC(filename string) ([]paging.TOCEntry, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	return readTOC(filename, rc.Rootfiles[0])
}

// readTOC reads the NCX table of contents, falling back to an EPUB 3 navigation document.
// Entry hrefs are returned relative to the package document, like spine hrefs.
func readTOC(filename string, book *epub.Rootfile) ([]paging.TOCEntry, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	href, isNCX := tocDocument(book)
	if href == "" {
		return nil, errNoTOC
	}
	data, err := readArchived(&zr.Reader, href)
	if err != nil {
		return nil, err
	}

	var entries []paging.TOCEntry
	if isNCX {
		var doc ncx
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse NCX: %w", err)
		}
		entries = flattenNavPoints(doc.Points, 0)
	} else {
		if entries, err = parseNavDocument(data); err != nil {
			return nil, err
		}
	}

	base := path.Dir(href)
	for i := range entries {
		entries[i].Href = resolveHref(base, entries[i].Href)
	}
	return entries, nil
}

// tocDocument picks the manifest item holding the table of contents.
func tocDocument(book *epub.Rootfile) (href string, isNCX bool) {
	for _, item := range book.Manifest.Items {
		if item.MediaType == ncxMediaType {
			return item.HREF, true
		}
	}
	for _, item := range book.Manifest.Items {
		name := strings.ToLower(path.Base(item.HREF))
		if item.MediaType == "application/xhtml+xml" && (strings.Contains(name, "nav") || strings.HasPrefix(name, "toc")) {
			return item.HREF, false
		}
	}
	return "", false
}

// readArchived reads the archive member a manifest href points to. Manifest hrefs are
// relative to the package document, so the member name only has to end with the href.
func readArchived(zr *zip.Reader, href string) ([]byte, error) {
	var match *zip.File
	for _, f := range zr.File {
		if f.Name == href || strings.HasSuffix(f.Name, "/"+href) {
			match = f
			break
		}
		if match == nil && path.Base(f.Name) == path.Base(href) {
			match = f
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%s not found in archive", href)
	}
	rc, err := match.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func resolveHref(base, href string) string {
	if href == "" || base == "." || strings.Contains(href, "://") {
		return href
	}
	return path.Join(base, href)
}

func flattenNavPoints(points []navPoint, level int) []paging.TOCEntry {
	var entries []paging.TOCEntry
	for _, np := range points {
		entries = append(entries, paging.TOCEntry{
			Title: strings.TrimSpace(np.Label),
			Href:  np.Content.Src,
			Level: level,
		})
		entries = append(entries, flattenNavPoints(np.Children, level+1)...)
	}
	return entries
}

// parseNavDocument flattens the toc nav of an EPUB 3 navigation document.
func parseNavDocument(data []byte) ([]paging.TOCEntry, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse nav document: %w", err)
	}
	nav := findTOCNav(doc)
	if nav == nil {
		return nil, errNoTOC
	}
	var entries []paging.TOCEntry
	for c := nav.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom == atom.Ol {
			entries = appendNavList(entries, c, 0)
		}
	}
	return entries, nil
}

func findTOCNav(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Nav {
		for _, a := range n.Attr {
			if a.Key == "epub:type" && a.Val == "toc" {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTOCNav(c); found != nil {
			return found
		}
	}
	return nil
}

func appendNavList(entries []paging.TOCEntry, ol *html.Node, level int) []paging.TOCEntry {
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.DataAtom != atom.Li {
			continue
		}
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			switch c.DataAtom {
			case atom.A, atom.Span:
				entries = append(entries, paging.TOCEntry{
					Title: strings.Join(strings.Fields(nodeText(c)), " "),
					Href:  attr(c, "href"),
					Level: level,
				})
			case atom.Ol:
				entries = appendNavList(entries, c, level+1)
			}
		}
	}
	return entries
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
