package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/metcalfc/folio/internal/paging"
	"golang.org/x/text/unicode/norm"
)

// Format defines a file format reader that parses a book into chapters.
type Format interface {
	Name() string
	Extensions() []string
	Extract(filename string) (paging.Source, error)
}

var registry []Format

// Register adds a format reader to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

// ExtractBook parses a file with a registered format, or as a single plain text chapter.
// All text is NFC normalised so offsets are stable across reads of the same book.
func ExtractBook(filename string) (paging.Source, error) {
	src, err := extract(filename)
	if err != nil {
		return paging.Source{}, err
	}
	if len(src.Chapters) == 0 {
		return paging.Source{}, fmt.Errorf("%s: no readable chapters", filepath.Base(filename))
	}
	normalize(&src)
	return src, nil
}

func extract(filename string) (paging.Source, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range registry {
		for _, e := range f.Extensions() {
			if ext == e {
				return f.Extract(filename)
			}
		}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return paging.Source{}, err
	}
	name := filepath.Base(filename)
	title := strings.TrimSuffix(name, filepath.Ext(name))
	return paging.Source{
		Title:    title,
		Chapters: []paging.SourceChapter{{Title: title, Href: name, Text: string(data)}},
	}, nil
}

func normalize(src *paging.Source) {
	src.Title = norm.NFC.String(src.Title)
	for i := range src.Chapters {
		c := &src.Chapters[i]
		c.Title = norm.NFC.String(c.Title)
		c.Text = norm.NFC.String(strings.ReplaceAll(c.Text, "\r\n", "\n"))
	}
	for i := range src.TOC {
		src.TOC[i].Title = norm.NFC.String(src.TOC[i].Title)
	}
}

// SupportedFormats returns registered format names with their extensions.
func SupportedFormats() []string {
	var out []string
	for _, f := range registry {
		out = append(out, f.Name()+" ("+strings.Join(f.Extensions(), ", ")+")")
	}
	return out
}
