package paging

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Snapshot is the input for paginating a book away from its owner goroutine. It holds the
// texts of every chapter that still needs a page index under the captured layout version.
type Snapshot struct {
	Version uint64
	Layout  Layout

	probe Probe
	texts map[int][]rune
}

// Pending returns how many chapters the snapshot will paginate.
func (s Snapshot) Pending() int {
	return len(s.texts)
}

// Built holds page indices produced from a snapshot.
type Built struct {
	Version uint64
	Indices map[int]Index
}

// Snapshot captures the chapters that are not paginated under the current layout.
func (b *Book) Snapshot() Snapshot {
	s := Snapshot{
		Version: b.version,
		Layout:  b.layout,
		probe:   b.probe,
		texts:   make(map[int][]rune),
	}
	for _, c := range b.chapters {
		if !b.current(c) {
			s.texts[c.Index] = c.text
		}
	}
	return s
}

// BuildAll paginates every chapter of s with up to workers goroutines (GOMAXPROCS when
// workers <= 0). The probe must be safe for concurrent use. progress, if set, is called
// after each chapter, serialised. A cancelled context returns ctx.Err() and no result.
func BuildAll(ctx context.Context, s Snapshot, workers int, progress func(done, total int)) (Built, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		mu   sync.Mutex
		done int
		out  = Built{Version: s.Version, Indices: make(map[int]Index, len(s.texts))}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for idx, text := range s.texts {
		idx, text := idx, text
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ix, err := Build(text, s.Layout, s.probe)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			out.Indices[idx] = ix
			done++
			if progress != nil {
				progress(done, len(s.texts))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Built{}, err
	}
	if err := ctx.Err(); err != nil {
		return Built{}, err
	}
	return out, nil
}

// Install adopts indices built from a snapshot. Results from an older layout version are
// discarded, as are chapters already paginated since the snapshot. It reports whether the
// result was current.
func (b *Book) Install(built Built) bool {
	if built.Version != b.version {
		b.logger.Debug("discarding stale pagination", "built", built.Version, "current", b.version)
		return false
	}
	for idx, ix := range built.Indices {
		if idx < 0 || idx >= len(b.chapters) {
			continue
		}
		c := b.chapters[idx]
		if b.current(c) {
			continue
		}
		b.install(c, ix)
	}
	return true
}
