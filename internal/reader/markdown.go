package reader

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/metcalfc/folio/internal/paging"
)

// MarkdownFormat implements Format for Markdown files.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

// headerRegex matches markdown headers (# to ######)
var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Extract starts a chapter at every header. Text before the first header becomes an untitled
// opening chapter.
func (f *MarkdownFormat) Extract(filename string) (paging.Source, error) {
	file, err := os.Open(filename)
	if err != nil {
		return paging.Source{}, err
	}
	defer file.Close()

	name := filepath.Base(filename)
	src := paging.Source{Title: strings.TrimSuffix(name, filepath.Ext(name))}

	var (
		current *paging.SourceChapter
		lines   []string
	)
	closeChapter := func() {
		text := strings.Trim(strings.Join(lines, "\n"), "\n")
		lines = nil
		if current == nil {
			if text == "" {
				return
			}
			current = &paging.SourceChapter{Title: src.Title}
		}
		current.Href = sectionHref(len(src.Chapters))
		current.Text = text
		src.Chapters = append(src.Chapters, *current)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var fence string
	for scanner.Scan() {
		line := scanner.Text()

		// Headers inside fenced code are code.
		if marker := fenceMarker(line); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(marker, fence):
				fence = ""
			}
		}
		if fence != "" {
			lines = append(lines, line)
			continue
		}

		if match := headerRegex.FindStringSubmatch(line); match != nil {
			closeChapter()
			title := headerTitle(match[2])
			current = &paging.SourceChapter{Title: title}
			// h1 = level 0, h2 = level 1, etc.
			src.TOC = append(src.TOC, paging.TOCEntry{
				Title: title,
				Href:  sectionHref(len(src.Chapters)),
				Level: len(match[1]) - 1,
			})
			lines = append(lines, title)
			continue
		}
		lines = append(lines, line)
	}
	closeChapter()

	return src, scanner.Err()
}

// headerTitle drops an optional closing run of '#', which must follow a space.
func headerTitle(s string) string {
	title := strings.TrimSpace(s)
	if i := strings.LastIndex(title, " #"); i >= 0 && strings.Trim(title[i:], " #") == "" {
		title = strings.TrimSpace(title[:i])
	}
	return title
}

// fenceMarker returns the ``` or ~~~ run opening line, if it starts a fenced code block.
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return ""
	}
	for _, c := range []string{"`", "~"} {
		n := len(trimmed) - len(strings.TrimLeft(trimmed, c))
		if n >= 3 {
			return trimmed[:n]
		}
	}
	return ""
}

func sectionHref(n int) string {
	return fmt.Sprintf("section-%03d", n)
}
