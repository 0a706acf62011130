package paging

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLayout(multiplier int) Layout {
	return Layout{
		Page:               Rect{Width: 320, Height: 480},
		Margins:            Insets{Top: 10, Left: 10, Bottom: 10, Right: 10},
		Font:               Font{Name: "Georgia", Size: 12},
		TextSizeMultiplier: multiplier,
	}
}

// capacity fits exactly n runes on every page.
func capacity(n int) Probe {
	return ProbeFunc(func([]rune, int, Rect, Font, int) int {
		return n
	})
}

// scaled fits base runes at multiplier 100 and proportionally fewer at larger sizes.
func scaled(base int) Probe {
	return ProbeFunc(func(_ []rune, _ int, _ Rect, _ Font, multiplier int) int {
		return base * 100 / multiplier
	})
}

func chapterText(n int) string {
	var sb strings.Builder
	for i := 0; sb.Len() < n; i++ {
		fmt.Fprintf(&sb, "w%d ", i)
	}
	return sb.String()[:n]
}

func testSource(lengths ...int) Source {
	src := Source{Title: "Test Book", Language: "en"}
	for i, n := range lengths {
		src.Chapters = append(src.Chapters, SourceChapter{
			Title: fmt.Sprintf("Chapter %d", i+1),
			Href:  fmt.Sprintf("text/ch%02d.xhtml", i),
			Text:  chapterText(n),
		})
		src.TOC = append(src.TOC, TOCEntry{
			Title: fmt.Sprintf("Chapter %d", i+1),
			Href:  fmt.Sprintf("text/ch%02d.xhtml", i),
		})
	}
	return src
}

func newTestBook(t *testing.T, probe Probe, lengths ...int) *Book {
	t.Helper()
	b, err := NewBook(testSource(lengths...), testLayout(DefaultTextSizeMultiplier), probe)
	require.NoError(t, err)
	return b
}

func requireCoverage(t *testing.T, ranges []Range, n int) {
	t.Helper()
	require.NotEmpty(t, ranges)
	require.Equal(t, 0, ranges[0].Location)
	require.Equal(t, n, ranges[len(ranges)-1].End())
	for i := 1; i < len(ranges); i++ {
		require.True(t, ranges[i-1].Adjacent(ranges[i]), "gap or overlap between %s and %s", ranges[i-1], ranges[i])
	}
	if n > 0 {
		for _, r := range ranges {
			require.False(t, r.IsEmpty(), "empty page %s in non-empty chapter", r)
		}
	}
}
