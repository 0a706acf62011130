package paging

// Index is the page list of one chapter under one layout.
type Index struct {
	Ranges []Range
	// Degraded counts runes that were force-consumed because the probe reported that nothing
	// fit. Non-zero means the page rectangle is too small for the current font.
	Degraded int
	// Version is the layout version the index was built for. Build leaves it zero; the Book
	// stamps it.
	Version uint64
}

// Len returns the number of pages.
func (ix Index) Len() int {
	return len(ix.Ranges)
}

// Build splits text into consecutive page ranges. The result always has at least one page,
// starts at 0, ends at len(text), and has no gaps or overlaps.
func Build(text []rune, cfg Layout, probe Probe) (Index, error) {
	if err := cfg.Validate(); err != nil {
		return Index{}, err
	}

	n := len(text)
	if n == 0 {
		return Index{Ranges: []Range{{}}}, nil
	}

	rect := cfg.ContentRect()
	var ix Index
	for off := 0; off < n; {
		fit := probe.MeasureFit(text, off, rect, cfg.Font, cfg.TextSizeMultiplier)
		if fit <= 0 {
			fit = 1
			ix.Degraded++
		}
		if fit > n-off {
			fit = n - off
		}
		ix.Ranges = append(ix.Ranges, Range{Location: off, Length: fit})
		off += fit
	}
	return ix, nil
}
