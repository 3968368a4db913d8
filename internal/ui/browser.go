package ui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/progress"
)

// BrowserResult holds the outcome of the story browser.
type BrowserResult struct {
	Index     int
	Cancelled bool
}

type storyItem struct {
	track catalog.Track
	heard bool
}

func (i storyItem) Title() string {
	if i.heard {
		return i.track.Title + " ✓"
	}
	return i.track.Title
}

func (i storyItem) Description() string {
	desc := ""
	if series, ok := i.track.SeriesTitle.Get(); ok {
		desc = series
	}
	if publish, ok := i.track.PublishAt.Get(); ok {
		if desc != "" {
			desc += "  "
		}
		desc += publish.Format("2006-01-02")
	}
	if desc == "" {
		desc = "story"
	}
	return desc
}

func (i storyItem) FilterValue() string { return i.track.Title }

// fuzzyFilter matches Hebrew titles loosely: normalized, case-folded, and
// tolerant of skipped characters.
func fuzzyFilter(term string, targets []string) []list.Rank {
	ranks := fuzzy.RankFindNormalizedFold(term, targets)
	out := make([]list.Rank, len(ranks))
	for i, r := range ranks {
		out[i] = list.Rank{Index: r.OriginalIndex}
	}
	return out
}

// BrowserModel is the story picker screen.
type BrowserModel struct {
	list   list.Model
	tracks []catalog.Track
	heard  *progress.HeardSet
	result *BrowserResult
}

// NewBrowser builds a browser over the given tracks, in order.
func NewBrowser(tracks []catalog.Track, heard *progress.HeardSet) BrowserModel {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = storyItem{track: t, heard: heard != nil && heard.IsHeard(t.ID)}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, 80, 20)
	l.Title = "sipurim"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Filter = fuzzyFilter
	l.Styles.Title = headerStyle

	return BrowserModel{list: l, tracks: tracks, heard: heard}
}

// Result returns the selection after the program finishes.
func (m BrowserModel) Result() BrowserResult {
	if m.result != nil {
		return *m.result
	}
	return BrowserResult{Cancelled: true}
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.SetWindowTitle("sipurim")
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Leave keys alone while the filter prompt is active.
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(storyItem); ok {
				m.result = &BrowserResult{Index: m.indexOf(item.track.ID)}
				return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
			}
		case "h":
			if item, ok := m.list.SelectedItem().(storyItem); ok && m.heard != nil {
				item.heard = m.heard.Toggle(item.track.ID)
				return m, m.list.SetItem(m.list.Index(), item)
			}
		case "q", "esc", "ctrl+c":
			m.result = &BrowserResult{Cancelled: true}
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) indexOf(id string) int {
	for i, t := range m.tracks {
		if t.ID == id {
			return i
		}
	}
	return 0
}

func (m BrowserModel) View() string {
	return m.list.View()
}
