//go:build !gui

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/metcalfc/folio/internal/layout"
	"github.com/metcalfc/folio/internal/paging"
	"github.com/metcalfc/folio/internal/reader"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFAA00"))

	chapterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	markStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Padding(0, 1)

	seekStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))
)

// chromeLines is the number of terminal rows not used for page text: header, footer, help.
const chromeLines = 3

type mode int

const (
	modeRead mode = iota
	modeTOC
	modeBookmarks
	modeSeek
)

type keyMap struct {
	Next      key.Binding
	Prev      key.Binding
	TOC       key.Binding
	Bookmarks key.Binding
	Mark      key.Binding
	Bigger    key.Binding
	Smaller   key.Binding
	Font      key.Binding
	Seek      key.Binding
	Delete    key.Binding
	Select    key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Next:      key.NewBinding(key.WithKeys("right", "l", " ", "pgdown"), key.WithHelp("→", "next")),
		Prev:      key.NewBinding(key.WithKeys("left", "h", "pgup"), key.WithHelp("←", "prev")),
		TOC:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "contents")),
		Bookmarks: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bookmarks")),
		Mark:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark")),
		Bigger:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "size")),
		Smaller:   key.NewBinding(key.WithKeys("-")),
		Font:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "font")),
		Seek:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to page")),
		Delete:    key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) readHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.TOC, k.Bookmarks, k.Mark, k.Bigger, k.Font, k.Seek, k.Quit}
}

func (k keyMap) seekHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "±1")),
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "±10")),
		k.Select, k.Back,
	}
}

type tocItem struct {
	idx   int
	entry paging.TOCEntry
}

func (i tocItem) Title() string       { return strings.Repeat("  ", i.entry.Level) + i.entry.Title }
func (i tocItem) Description() string { return "" }
func (i tocItem) FilterValue() string { return i.entry.Title }

type bookmarkItem struct {
	bm paging.Bookmark
}

func (i bookmarkItem) Title() string { return i.bm.Content }
func (i bookmarkItem) Description() string {
	return i.bm.ChapterName + " · " + humanize.Time(i.bm.MarkTime)
}
func (i bookmarkItem) FilterValue() string { return i.bm.Content }

// pageProgressMsg reports background pagination of one more chapter.
type pageProgressMsg struct {
	version     uint64
	done, total int
}

// paginatedMsg carries the finished background pagination.
type paginatedMsg struct {
	version uint64
	built   paging.Built
	err     error
}

type model struct {
	*reader.Reader
	probe    layout.Cell
	keys     keyMap
	help     help.Model
	bar      progress.Model
	toc      list.Model
	marks    list.Model
	mode     mode
	seek     int
	width    int
	height   int
	margin   int
	maxWidth int
	workers  int

	pagingCh      <-chan tea.Msg
	pagingVersion uint64
	cancel        context.CancelFunc
	built         float64

	status     string
	err        error
	quitting   bool
	onSettings func(*reader.Reader)
	logger     *slog.Logger
}

type modelOptions struct {
	margin     int
	maxWidth   int // text column cap, zero for the full terminal width
	workers    int
	onSettings func(*reader.Reader)
	logger     *slog.Logger
}

func newModel(r *reader.Reader, opts modelOptions) model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	toc := list.New(nil, delegate, 0, 0)
	toc.Title = "Contents"
	toc.SetShowStatusBar(false)

	marks := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	marks.Title = "Bookmarks"
	marks.SetShowStatusBar(false)

	logger := opts.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return model{
		Reader:     r,
		probe:      layout.Terminal(),
		keys:       newKeyMap(),
		help:       help.New(),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		toc:        toc,
		marks:      marks,
		width:      80,
		height:     24,
		margin:     opts.margin,
		maxWidth:   opts.maxWidth,
		workers:    opts.workers,
		onSettings: opts.onSettings,
		logger:     logger,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func waitFor(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// startPagination paginates the rest of the book in the background under the current
// layout. A run for an older layout is cancelled and its results are ignored.
func (m *model) startPagination() tea.Cmd {
	snap := m.Book().Snapshot()
	if m.pagingCh != nil && m.pagingVersion == snap.Version {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.pagingCh, m.cancel = nil, nil
	m.pagingVersion = snap.Version
	if snap.Pending() == 0 {
		m.built = 1
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan tea.Msg, snap.Pending()+1)
	workers := m.workers
	go func() {
		defer close(ch)
		built, err := paging.BuildAll(ctx, snap, workers, func(done, total int) {
			ch <- pageProgressMsg{version: snap.Version, done: done, total: total}
		})
		ch <- paginatedMsg{version: snap.Version, built: built, err: err}
	}()

	m.pagingCh, m.cancel, m.built = ch, cancel, 0
	return waitFor(ch)
}

func (m *model) stopPagination() {
	if m.cancel != nil {
		m.cancel()
	}
	m.pagingCh, m.cancel = nil, nil
}

// pageLayout returns the page rectangle and margins for the terminal size.
func (m model) pageLayout() (paging.Rect, paging.Insets) {
	width := m.width
	if m.maxWidth > 0 {
		width = min(width, m.maxWidth)
	}
	page := paging.Rect{
		Width:  float64(max(width, 1)),
		Height: float64(max(m.height-chromeLines, 1)),
	}
	margin := float64(min(m.margin, width/4))
	return page, paging.Insets{Left: margin, Right: margin}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(m.width/3, 10)
		m.toc.SetSize(m.width, m.height-1)
		m.marks.SetSize(m.width, m.height-1)
		page, margins := m.pageLayout()
		if err := m.Resize(page, margins); err != nil {
			m.fail("resize", err)
		}
		return m, m.startPagination()

	case pageProgressMsg:
		if msg.version != m.pagingVersion || m.pagingCh == nil {
			return m, nil
		}
		m.built = float64(msg.done) / float64(msg.total)
		return m, waitFor(m.pagingCh)

	case paginatedMsg:
		if msg.version != m.pagingVersion {
			return m, nil
		}
		m.pagingCh, m.cancel = nil, nil
		if msg.err != nil {
			if !errors.Is(msg.err, context.Canceled) {
				m.fail("paginate", msg.err)
			}
			return m, nil
		}
		if m.Install(msg.built) {
			m.built = 1
			return m, nil
		}
		return m, m.startPagination()

	case tea.KeyMsg:
		switch m.mode {
		case modeTOC:
			return m.updateTOC(msg)
		case modeBookmarks:
			return m.updateBookmarks(msg)
		case modeSeek:
			return m.updateSeek(msg)
		}
		return m.updateRead(msg)
	}

	return m, nil
}

func (m *model) fail(op string, err error) {
	m.err = err
	m.logger.Error(op+" failed", "error", err)
}

func (m *model) save() {
	if _, err := m.Save(); err != nil {
		m.fail("save", err)
	}
}

func (m model) updateRead(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status, m.err = "", nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.save()
		m.stopPagination()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Next):
		ok, err := m.Next()
		if err != nil {
			m.fail("next", err)
		} else if !ok {
			m.status = "End of book"
		}
		m.save()

	case key.Matches(msg, m.keys.Prev):
		ok, err := m.Prev()
		if err != nil {
			m.fail("prev", err)
		} else if !ok {
			m.status = "Start of book"
		}
		m.save()

	case key.Matches(msg, m.keys.Bigger), key.Matches(msg, m.keys.Smaller):
		step := 1
		if key.Matches(msg, m.keys.Smaller) {
			step = -1
		}
		if err := m.StepTextSize(step); err != nil {
			m.fail("text size", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Text size %d%%", m.TextSize())
		m.settingsChanged()
		return m, m.startPagination()

	case key.Matches(msg, m.keys.Font):
		fonts := reader.Fonts(m.Book().Language)
		next := fonts[(slices.Index(fonts, m.Book().Layout().Font.Name)+1)%len(fonts)]
		if err := m.SetFont(next); err != nil {
			m.fail("font", err)
			return m, nil
		}
		m.status = "Font " + next
		m.settingsChanged()
		return m, m.startPagination()

	case key.Matches(msg, m.keys.Mark):
		added, err := m.ToggleBookmark(context.Background())
		if err != nil {
			m.fail("bookmark", err)
		} else if added {
			m.status = "Bookmark added"
		} else {
			m.status = "Bookmark removed"
		}

	case key.Matches(msg, m.keys.TOC):
		if len(m.Book().TOC()) == 0 {
			m.status = "No table of contents"
			return m, nil
		}
		m.toc.SetItems(m.tocItems())
		if pos := m.CurrentTOCEntry(); pos >= 0 {
			m.toc.Select(pos)
		}
		m.mode = modeTOC

	case key.Matches(msg, m.keys.Bookmarks):
		m.marks.SetItems(m.bookmarkItems())
		m.mode = modeBookmarks

	case key.Matches(msg, m.keys.Seek):
		if _, err := m.PageCount(); err != nil {
			m.fail("seek", err)
			return m, nil
		}
		m.seek = m.Current().DisplayPageIdx
		m.mode = modeSeek
	}

	return m, nil
}

func (m *model) settingsChanged() {
	if m.onSettings != nil {
		m.onSettings(m.Reader)
	}
}

func (m model) tocItems() []list.Item {
	toc := m.Book().TOC()
	items := make([]list.Item, len(toc))
	for i, e := range toc {
		items[i] = tocItem{idx: i, entry: e}
	}
	return items
}

func (m model) bookmarkItems() []list.Item {
	marks := m.Bookmarks()
	items := make([]list.Item, len(marks))
	for i, bm := range marks {
		items[i] = bookmarkItem{bm}
	}
	return items
}

func (m model) updateTOC(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.toc.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.mode = modeRead
			return m, nil
		case key.Matches(msg, m.keys.Select):
			if it, ok := m.toc.SelectedItem().(tocItem); ok {
				if err := m.JumpToTOC(it.idx); err != nil {
					m.fail("contents", err)
				}
				m.save()
			}
			m.mode = modeRead
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.toc, cmd = m.toc.Update(msg)
	return m, cmd
}

func (m model) updateBookmarks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.marks.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.mode = modeRead
			return m, nil
		case key.Matches(msg, m.keys.Select):
			if it, ok := m.marks.SelectedItem().(bookmarkItem); ok {
				if err := m.JumpToBookmark(it.bm); err != nil {
					m.fail("bookmark", err)
				}
				m.save()
			}
			m.mode = modeRead
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if it, ok := m.marks.SelectedItem().(bookmarkItem); ok {
				if err := m.DeleteBookmark(context.Background(), it.bm); err != nil {
					m.fail("delete bookmark", err)
				}
				m.marks.SetItems(m.bookmarkItems())
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.marks, cmd = m.marks.Update(msg)
	return m, cmd
}

func (m model) updateSeek(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total, ok := m.Book().KnownPageCount()
	if !ok {
		m.mode = modeRead
		return m, nil
	}

	switch msg.String() {
	case "left", "h":
		m.seek--
	case "right", "l":
		m.seek++
	case "down", "j", "pgdown":
		m.seek += 10
	case "up", "k", "pgup":
		m.seek -= 10
	case "home":
		m.seek = 1
	case "end":
		m.seek = total
	case "enter":
		if err := m.Seek(m.seek); err != nil {
			m.fail("seek", err)
		}
		m.save()
		m.mode = modeRead
	case "esc", "q":
		m.mode = modeRead
	}
	m.seek = max(1, min(m.seek, total))
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	switch m.mode {
	case modeTOC:
		return m.toc.View()
	case modeBookmarks:
		if len(m.marks.Items()) == 0 {
			return "\n  No bookmarks yet. Press m while reading to add one.\n\n  " +
				m.help.ShortHelpView([]key.Binding{m.keys.Back})
		}
		return m.marks.View() + "\n" + m.help.ShortHelpView([]key.Binding{m.keys.Select, m.keys.Delete, m.keys.Back})
	}

	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n")

	lines := m.pageLines()
	rows := max(m.height-chromeLines, 1)
	_, margins := m.pageLayout()
	pad := strings.Repeat(" ", int(margins.Left))
	for i := 0; i < rows; i++ {
		if i < len(lines) {
			sb.WriteString(pad)
			sb.WriteString(lines[i])
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.footer())
	sb.WriteString("\n")
	if m.mode == modeSeek {
		sb.WriteString(m.help.ShortHelpView(m.keys.seekHelp()))
	} else {
		sb.WriteString(m.help.ShortHelpView(m.keys.readHelp()))
	}
	return sb.String()
}

func (m model) header() string {
	h := titleStyle.Render(m.Book().Title)
	if c := m.Chapter(); c != nil && c.Title != "" {
		h += chapterStyle.Render(" · " + c.Title)
	}
	if m.Bookmarked() {
		h += markStyle.Render(" ★")
	}
	return h
}

func (m model) pageLines() []string {
	c := m.Chapter()
	if c == nil {
		return nil
	}
	l := m.Book().Layout()
	cols, _ := m.probe.Grid(l.ContentRect(), l.Font, l.TextSizeMultiplier)
	return layout.Wrap(c.Text(), m.Current().Range, cols)
}

func (m model) footer() string {
	if m.mode == modeSeek {
		total, _ := m.Book().KnownPageCount()
		title, pct, err := m.SeekTip(m.seek)
		if err != nil {
			return errorStyle.Render(err.Error())
		}
		return m.bar.ViewAs(float64(m.seek)/float64(total)) +
			seekStyle.Render(fmt.Sprintf(" %d/%d · %d%% · %s", m.seek, total, pct, title))
	}

	p := m.Current()
	var label string
	frac := 0.0
	if total, ok := m.Book().KnownPageCount(); ok && p.DisplayPageIdx > 0 {
		frac = float64(p.DisplayPageIdx) / float64(total)
		label = fmt.Sprintf("Page %d/%d · %d%%", p.DisplayPageIdx, total, p.DisplayPageIdx*100/total)
	} else {
		frac = float64(p.ChapterIdx) / float64(m.Book().ChapterCount())
		label = fmt.Sprintf("Chapter %d/%d · page %d · paginating %d%%",
			p.ChapterIdx+1, m.Book().ChapterCount(), p.PageIdx+1, int(m.built*100))
	}
	label += fmt.Sprintf(" · %d%%", m.TextSize())

	footer := m.bar.ViewAs(frac) + statusStyle.Render(label)
	switch {
	case m.err != nil:
		footer += errorStyle.Render(m.err.Error())
	case m.status != "":
		footer += statusStyle.Render(m.status)
	}
	if warn := m.LayoutWarning(); warn != nil {
		footer += warnStyle.Render("⚠ " + warn.Error())
	}
	return footer
}

func main() {
	cli := parseCLI("Paged terminal e-book reader")

	a, err := newApp(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	// Real geometry arrives with the first WindowSizeMsg.
	page := paging.Rect{Width: 80, Height: 24 - chromeLines}
	if a.cfg.PageWidth > 0 && a.cfg.PageHeight > 0 {
		page = paging.Rect{Width: float64(a.cfg.PageWidth), Height: float64(a.cfg.PageHeight)}
	}
	margins := paging.Insets{Left: float64(a.cfg.Margin), Right: float64(a.cfg.Margin)}
	r, err := a.open(context.Background(), a.layout(page, margins, 1), layout.Terminal())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := newModel(r, modelOptions{
		margin:     a.cfg.Margin,
		maxWidth:   a.cfg.PageWidth,
		workers:    a.workers(),
		onSettings: a.saveSettings,
		logger:     a.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
