package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFixedCapacity(t *testing.T) {
	ix, err := Build([]rune(chapterText(1000)), testLayout(100), capacity(300))
	require.NoError(t, err)

	want := []Range{
		NewRange(0, 300),
		NewRange(300, 600),
		NewRange(600, 900),
		NewRange(900, 1000),
	}
	assert.Equal(t, want, ix.Ranges)
	assert.Zero(t, ix.Degraded)
}

func TestBuildEmptyChapter(t *testing.T) {
	ix, err := Build(nil, testLayout(100), capacity(300))
	require.NoError(t, err)
	require.Equal(t, 1, ix.Len())
	assert.Equal(t, Range{}, ix.Ranges[0])
}

func TestBuildZeroFitForcesProgress(t *testing.T) {
	ix, err := Build([]rune("abc"), testLayout(100), capacity(0))
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, 3, ix.Degraded)
	requireCoverage(t, ix.Ranges, 3)
}

func TestBuildClampsOvershoot(t *testing.T) {
	ix, err := Build([]rune(chapterText(10)), testLayout(100), capacity(64))
	require.NoError(t, err)
	assert.Equal(t, []Range{NewRange(0, 10)}, ix.Ranges)
}

func TestBuildCoverage(t *testing.T) {
	for _, n := range []int{1, 2, 7, 299, 300, 301, 1000, 4097} {
		for _, c := range []int{-1, 0, 1, 3, 150, 300, 5000} {
			ix, err := Build([]rune(chapterText(n)), testLayout(100), capacity(c))
			require.NoError(t, err)
			requireCoverage(t, ix.Ranges, n)
		}
	}
}

func TestBuildUnresolvedLayout(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
	}{
		{"pending font", func(l *Layout) { l.Font.Pending = true }},
		{"no font", func(l *Layout) { l.Font.Name = "" }},
		{"zero size", func(l *Layout) { l.Font.Size = 0 }},
		{"zero multiplier", func(l *Layout) { l.TextSizeMultiplier = 0 }},
		{"margins eat page", func(l *Layout) { l.Margins.Left = 400 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLayout(100)
			tt.mutate(&l)
			_, err := Build([]rune("text"), l, capacity(10))
			require.ErrorIs(t, err, ErrUnresolvedLayout)
		})
	}
}

func TestBuildPassesContentRect(t *testing.T) {
	var got Rect
	probe := ProbeFunc(func(text []rune, from int, rect Rect, _ Font, _ int) int {
		got = rect
		return len(text) - from
	})
	_, err := Build([]rune("text"), testLayout(100), probe)
	require.NoError(t, err)
	assert.Equal(t, Rect{Width: 300, Height: 460}, got)
}
