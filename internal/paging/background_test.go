package paging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAllMatchesLazyPagination(t *testing.T) {
	lengths := []int{120, 0, 999, 64, 2048}
	bg := newTestBook(t, scaled(100), lengths...)
	lazy := newTestBook(t, scaled(100), lengths...)

	// One chapter already paginated on the owner side.
	_, err := bg.PageCountOf(2)
	require.NoError(t, err)

	snap := bg.Snapshot()
	assert.Equal(t, 4, snap.Pending())

	var calls []int
	built, err := BuildAll(context.Background(), snap, 2, func(done, total int) {
		calls = append(calls, done)
		assert.Equal(t, 4, total)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, calls)
	require.True(t, bg.Install(built))

	n, ok := bg.KnownPageCount()
	require.True(t, ok)
	want, err := lazy.PageCount()
	require.NoError(t, err)
	assert.Equal(t, want, n)

	for i := range lengths {
		a, err := bg.Index(i, false)
		require.NoError(t, err)
		b, err := lazy.Index(i, false)
		require.NoError(t, err)
		assert.Equal(t, b.Ranges, a.Ranges)
	}
}

func TestInstallDiscardsStaleVersion(t *testing.T) {
	b := newTestBook(t, scaled(100), 500, 500)
	snap := b.Snapshot()

	built, err := BuildAll(context.Background(), snap, 0, nil)
	require.NoError(t, err)

	b.SetLayout(testLayout(150))
	assert.False(t, b.Install(built))
	assert.False(t, b.IsPaginated(0))
	assert.False(t, b.IsPaginated(1))
}

func TestBuildAllCancelled(t *testing.T) {
	b := newTestBook(t, scaled(100), 500, 500, 500)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	built, err := BuildAll(ctx, b.Snapshot(), 1, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, built.Indices)
}

func TestBuildAllPropagatesLayoutError(t *testing.T) {
	src := testSource(10)
	l := testLayout(100)
	l.Font.Pending = true
	b, err := NewBook(src, l, scaled(100))
	require.NoError(t, err)

	_, err = BuildAll(context.Background(), b.Snapshot(), 1, nil)
	require.ErrorIs(t, err, ErrUnresolvedLayout)
}
