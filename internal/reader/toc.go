package reader

import (
	"path"
	"strings"

	"github.com/metcalfc/folio/internal/paging"
)

// tocTitles maps TOC targets to titles. Each entry is keyed by its href, the href without
// fragment and the bare file name; the first entry for a key wins.
func tocTitles(toc []paging.TOCEntry) map[string]string {
	result := make(map[string]string)
	add := func(key, title string) {
		if _, exists := result[key]; !exists {
			result[key] = title
		}
	}
	for _, e := range toc {
		add(e.Href, e.Title)
		base := stripFragment(e.Href)
		add(base, e.Title)
		add(path.Base(base), e.Title)
	}
	return result
}

func lookupTitle(titles map[string]string, href string) (string, bool) {
	if href == "" {
		return "", false
	}
	if t, ok := titles[href]; ok {
		return t, true
	}
	t, ok := titles[path.Base(href)]
	return t, ok
}

func stripFragment(href string) string {
	if idx := strings.Index(href, "#"); idx != -1 {
		return href[:idx]
	}
	return href
}
