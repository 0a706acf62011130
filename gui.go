//go:build gui

package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
	"github.com/metcalfc/folio/internal/layout"
	"github.com/metcalfc/folio/internal/paging"
	"github.com/metcalfc/folio/internal/reader"
)

const (
	baseFontSize = 18
	pageMargin   = 32
)

var pageInsets = paging.Insets{Top: pageMargin, Left: pageMargin, Bottom: pageMargin, Right: pageMargin}

// textStyle maps a font family to the closest bundled face.
func textStyle(font string) fyne.TextStyle {
	return fyne.TextStyle{Monospace: strings.Contains(font, "Typewriter")}
}

func newProbe() *layout.Measured {
	return layout.NewMeasured(
		func(font string, size float64, r rune) float64 {
			return float64(fyne.MeasureText(string(r), float32(size), textStyle(font)).Width)
		},
		func(font string, size float64) float64 {
			return float64(fyne.MeasureText("Mg", float32(size), textStyle(font)).Height)
		},
	)
}

// linesLayout stacks page lines from the top-left corner inside the page margins.
type linesLayout struct {
	margin     float32
	lineHeight float32
}

func (l *linesLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(2*l.margin, 2*l.margin)
}

func (l *linesLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	y := l.margin
	for _, o := range objects {
		o.Move(fyne.NewPos(l.margin, y))
		o.Resize(o.MinSize())
		y += l.lineHeight
	}
}

type gui struct {
	*reader.Reader
	app   *app
	probe *layout.Measured
	win   fyne.Window

	lines  *linesLayout
	page   *fyne.Container
	status *widget.Label
	slider *widget.Slider
	split  *container.Split
	tabs   *container.AppTabs
	marks  []paging.Bookmark
	markUI *widget.List

	size          fyne.Size
	cancel        context.CancelFunc
	pagingVersion uint64
	built         float64
	note          string
}

func newGUI(a *app, r *reader.Reader, probe *layout.Measured, w fyne.Window) *gui {
	g := &gui{Reader: r, app: a, probe: probe, win: w}

	g.lines = &linesLayout{margin: pageMargin}
	g.page = container.New(g.lines)
	g.status = widget.NewLabel("")
	g.status.Alignment = fyne.TextAlignCenter

	g.slider = widget.NewSlider(1, 1)
	g.slider.Step = 1
	g.slider.Disable()
	g.slider.OnChangeEnded = func(v float64) {
		if err := g.Seek(int(v)); err != nil {
			g.fail("seek", err)
		}
		g.save()
		g.render()
	}

	controls := widget.NewLabel("←/→: page  +/-: size  O: font  M: mark  T: contents  B: bookmarks  F: fullscreen  Q: quit")
	controls.Alignment = fyne.TextAlignCenter

	reading := container.NewBorder(g.status, container.NewVBox(g.slider, controls), nil, nil, g.page)

	toc := g.Book().TOC()
	tocList := widget.NewList(
		func() int { return len(toc) },
		func() fyne.CanvasObject { return widget.NewLabel("Title") },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(strings.Repeat("  ", toc[id].Level) + toc[id].Title)
		},
	)
	tocList.OnSelected = func(id widget.ListItemID) {
		if err := g.JumpToTOC(id); err != nil {
			g.fail("contents", err)
		}
		tocList.UnselectAll()
		g.save()
		g.render()
	}

	g.markUI = widget.NewList(
		func() int { return len(g.marks) },
		func() fyne.CanvasObject {
			return container.NewVBox(widget.NewLabel("Preview"), widget.NewLabel("Chapter"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			bm := g.marks[id]
			vbox := obj.(*fyne.Container)
			vbox.Objects[0].(*widget.Label).SetText(bm.Content)
			vbox.Objects[1].(*widget.Label).SetText(bm.ChapterName + " · " + humanize.Time(bm.MarkTime))
		},
	)
	g.markUI.OnSelected = func(id widget.ListItemID) {
		if err := g.JumpToBookmark(g.marks[id]); err != nil {
			g.fail("bookmark", err)
		}
		g.markUI.UnselectAll()
		g.save()
		g.render()
	}

	g.tabs = container.NewAppTabs(
		container.NewTabItem("Contents", tocList),
		container.NewTabItem("Bookmarks", g.markUI),
	)
	g.split = container.NewHSplit(g.tabs, reading)
	g.split.Offset = 0.3
	g.tabs.Hide()

	w.SetContent(g.split)
	w.Canvas().SetOnTypedKey(g.typedKey)
	w.Canvas().SetOnTypedRune(g.typedRune)
	return g
}

func (g *gui) fail(op string, err error) {
	g.note = err.Error()
	g.app.logger.Error(op+" failed", "error", err)
}

func (g *gui) save() {
	if _, err := g.Save(); err != nil {
		g.fail("save", err)
	}
}

func (g *gui) typedKey(k *fyne.KeyEvent) {
	g.note = ""
	switch k.Name {
	case fyne.KeyRight, fyne.KeyDown, fyne.KeySpace, fyne.KeyPageDown:
		if ok, err := g.Next(); err != nil {
			g.fail("next", err)
		} else if !ok {
			g.note = "End of book"
		}
		g.save()

	case fyne.KeyLeft, fyne.KeyUp, fyne.KeyPageUp:
		if ok, err := g.Prev(); err != nil {
			g.fail("prev", err)
		} else if !ok {
			g.note = "Start of book"
		}
		g.save()

	case fyne.KeyO:
		fonts := reader.Fonts(g.Book().Language)
		next := fonts[(slices.Index(fonts, g.Book().Layout().Font.Name)+1)%len(fonts)]
		if err := g.SetFont(next); err != nil {
			g.fail("font", err)
			break
		}
		g.note = "Font " + next
		g.app.saveSettings(g.Reader)
		g.paginate()

	case fyne.KeyM:
		added, err := g.ToggleBookmark(context.Background())
		switch {
		case err != nil:
			g.fail("bookmark", err)
		case added:
			g.note = "Bookmark added"
		default:
			g.note = "Bookmark removed"
		}
		g.refreshMarks()

	case fyne.KeyT:
		g.toggleSide(0)
	case fyne.KeyB:
		g.toggleSide(1)

	case fyne.KeyF:
		g.win.SetFullScreen(!g.win.FullScreen())

	case fyne.KeyQ, fyne.KeyEscape:
		g.save()
		if g.cancel != nil {
			g.cancel()
		}
		fyne.CurrentApp().Quit()
		return
	}
	g.render()
}

func (g *gui) typedRune(r rune) {
	step := 0
	switch r {
	case '+', '=':
		step = 1
	case '-':
		step = -1
	default:
		return
	}
	g.note = ""
	if err := g.StepTextSize(step); err != nil {
		g.fail("text size", err)
	} else {
		g.note = fmt.Sprintf("Text size %d%%", g.TextSize())
		g.app.saveSettings(g.Reader)
		g.paginate()
	}
	g.render()
}

func (g *gui) toggleSide(tab int) {
	if g.tabs.Visible() && g.tabs.SelectedIndex() == tab {
		g.tabs.Hide()
	} else {
		g.refreshMarks()
		g.tabs.Select(g.tabs.Items[tab])
		g.tabs.Show()
	}
	g.split.Refresh()
}

func (g *gui) refreshMarks() {
	g.marks = g.Bookmarks()
	g.markUI.Refresh()
}

// checkSize re-lays the book out when the page area changed size.
func (g *gui) checkSize() {
	s := g.page.Size()
	if s.Width <= 0 || s.Height <= 0 || s == g.size {
		return
	}
	g.size = s
	page := paging.Rect{Width: float64(s.Width), Height: float64(s.Height)}
	if err := g.Resize(page, pageInsets); err != nil {
		g.fail("resize", err)
	}
	g.paginate()
	g.render()
}

// paginate builds the remaining chapters in the background. Results for an outdated layout
// are dropped.
func (g *gui) paginate() {
	snap := g.Book().Snapshot()
	if g.cancel != nil && g.pagingVersion == snap.Version {
		return
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.pagingVersion = snap.Version
	if snap.Pending() == 0 {
		g.built = 1
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel, g.built = cancel, 0
	workers := g.app.workers()
	go func() {
		built, err := paging.BuildAll(ctx, snap, workers, func(done, total int) {
			fyne.Do(func() {
				if g.pagingVersion == snap.Version {
					g.built = float64(done) / float64(total)
					g.refreshStatus()
				}
			})
		})
		fyne.Do(func() {
			cancel()
			if g.pagingVersion != snap.Version {
				return
			}
			g.cancel = nil
			switch {
			case errors.Is(err, context.Canceled):
			case err != nil:
				g.fail("paginate", err)
			case g.Install(built):
				g.built = 1
			default:
				g.paginate()
				return
			}
			g.render()
		})
	}()
}

func (g *gui) render() {
	l := g.Book().Layout()
	var lines []string
	if c := g.Chapter(); c != nil {
		lines = g.probe.Wrap(c.Text(), g.Current().Range, l.ContentRect(), l.Font, l.TextSizeMultiplier)
	}

	size := float32(l.PointSize())
	style := textStyle(l.Font.Name)
	objs := make([]fyne.CanvasObject, len(lines))
	for i, line := range lines {
		t := canvas.NewText(line, color.White)
		t.TextSize = size
		t.TextStyle = style
		objs[i] = t
	}
	g.lines.lineHeight = float32(g.probe.LineHeight(l.Font, l.TextSizeMultiplier))
	g.page.Objects = objs
	g.page.Refresh()
	g.refreshStatus()
}

func (g *gui) refreshStatus() {
	var sb strings.Builder
	sb.WriteString(g.Book().Title)
	if c := g.Chapter(); c != nil && c.Title != "" {
		sb.WriteString(" · " + c.Title)
	}

	p := g.Current()
	if total, ok := g.Book().KnownPageCount(); ok && p.DisplayPageIdx > 0 {
		fmt.Fprintf(&sb, " | Page %d/%d", p.DisplayPageIdx, total)
		g.slider.Max = float64(total)
		g.slider.SetValue(float64(p.DisplayPageIdx))
		g.slider.Enable()
	} else {
		fmt.Fprintf(&sb, " | Chapter %d/%d | paginating %d%%", p.ChapterIdx+1, g.Book().ChapterCount(), int(g.built*100))
		g.slider.Disable()
	}
	fmt.Fprintf(&sb, " | %s %d%%", g.Book().Layout().Font.Name, g.TextSize())
	if g.Bookmarked() {
		sb.WriteString(" ★")
	}
	if g.note != "" {
		sb.WriteString(" | " + g.note)
	}
	if warn := g.LayoutWarning(); warn != nil {
		sb.WriteString(" | ⚠ " + warn.Error())
	}
	g.status.SetText(sb.String())
}

func main() {
	cli := parseCLI("Paged desktop e-book reader")

	a, err := newApp(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	fa := fyneapp.New()
	w := fa.NewWindow("folio - " + a.src.Title)

	// The real page size is picked up once the window is shown.
	probe := newProbe()
	r, err := a.open(context.Background(), a.layout(paging.Rect{Width: 800, Height: 500}, pageInsets, baseFontSize), probe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	g := newGUI(a, r, probe, w)
	w.Resize(fyne.NewSize(800, 600))

	done := make(chan struct{})
	var closeOnce sync.Once
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				fyne.Do(g.checkSize)
			}
		}
	}()

	w.SetOnClosed(func() {
		g.save()
		if g.cancel != nil {
			g.cancel()
		}
		closeOnce.Do(func() { close(done) })
	})

	g.render()
	w.ShowAndRun()
	closeOnce.Do(func() { close(done) })
}
