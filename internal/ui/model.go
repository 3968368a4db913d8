package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/controller"
	"github.com/nadav-o/sipurim/internal/download"
	"github.com/nadav-o/sipurim/internal/player"
	"github.com/nadav-o/sipurim/internal/playlist"
	"github.com/nadav-o/sipurim/internal/progress"
	"github.com/nadav-o/sipurim/internal/util"
)

// Model is the now-playing screen. It drives the controller and engine from
// key input and relays async load completions back into the controller.
type Model struct {
	ctrl   *controller.Controller
	engine *player.Player
	cache  *download.Cache
	store  *progress.Store
	heard  *progress.HeardSet

	// pool is the unfiltered candidate set; reshuffles and skip-heard flips
	// rebuild the queue from it.
	pool      []catalog.Track
	skipHeard bool

	pending *controller.Load

	elapsed    time.Duration
	duration   time.Duration
	volume     float64
	width      int
	height     int
	quitting   bool
	status     string
	statusTime time.Time
}

// New builds the screen and queues up the track at start within order.
func New(
	ctrl *controller.Controller,
	engine *player.Player,
	cache *download.Cache,
	store *progress.Store,
	heard *progress.HeardSet,
	pool []catalog.Track,
	order []catalog.Track,
	start int,
	skipHeard bool,
) Model {
	m := Model{
		ctrl:      ctrl,
		engine:    engine,
		cache:     cache,
		store:     store,
		heard:     heard,
		pool:      pool,
		skipHeard: skipHeard,
		volume:    engine.Volume(),
	}
	if load, ok := ctrl.PlayQueue(order, start); ok {
		m.pending = &load
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), tea.SetWindowTitle("sipurim")}
	if m.pending != nil {
		cmds = append(cmds, m.loadCmd(*m.pending))
	}
	return tea.Batch(cmds...)
}

// loadCmd fetches the track's audio off the UI loop. The result carries the
// request generation so a superseded fetch is discarded on arrival.
func (m Model) loadCmd(load controller.Load) tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), download.DefaultTimeout)
		defer cancel()

		path, err := cache.Resolve(ctx, load.Track)
		if err != nil {
			return loadFailedMsg{gen: load.Gen, err: err}
		}
		return trackLoadedMsg{gen: load.Gen, path: path}
	}
}

// watchDone waits for the engine to report natural end of the given
// generation's track.
func (m Model) watchDone(gen int) tea.Cmd {
	ch := m.engine.Done()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return playbackEndedMsg{gen: gen}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		next, cmd := m.handleKey(msg)
		return next, cmd

	case trackLoadedMsg:
		if msg.gen != m.ctrl.Gen() {
			return m, nil
		}
		if err := m.engine.Load(msg.path); err != nil {
			m.ctrl.LoadFailed(msg.gen, err)
			m.setStatus(fmt.Sprintf("playback failed: %v", err))
			return m, nil
		}
		m.ctrl.StartLoaded(msg.gen)
		m.duration = m.engine.Duration()
		return m, m.watchDone(msg.gen)

	case loadFailedMsg:
		if m.ctrl.LoadFailed(msg.gen, msg.err) {
			m.setStatus(fmt.Sprintf("could not fetch audio: %v", msg.err))
		}
		return m, nil

	case playbackEndedMsg:
		next, ok := m.ctrl.HandleEnded(msg.gen)
		if !ok {
			return m, nil
		}
		return m, m.loadCmd(next)

	case tickMsg:
		m.ctrl.Tick()
		m.elapsed = m.ctrl.Position()
		m.duration = m.ctrl.Duration()
		m.volume = m.engine.Volume()
		if m.status != "" && time.Since(m.statusTime) > 5*time.Second {
			m.status = ""
		}
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if isQuit(msg) {
		return m.shutdown(false)
	}

	switch msg.String() {
	case " ":
		if load, ok := m.ctrl.Toggle(); ok {
			return m, m.loadCmd(load)
		}
	case "n":
		if load, ok := m.ctrl.Next(); ok {
			return m, m.loadCmd(load)
		}
	case "p":
		if load, ok := m.ctrl.Prev(); ok {
			return m, m.loadCmd(load)
		}
	case "left":
		m.ctrl.SeekBy(-5 * time.Second)
		m.elapsed = m.ctrl.Position()
	case "right":
		m.ctrl.SeekBy(5 * time.Second)
		m.elapsed = m.ctrl.Position()
	case "up", "+":
		m.engine.AdjustVolume(0.05)
		m.volume = m.engine.Volume()
	case "down", "-":
		m.engine.AdjustVolume(-0.05)
		m.volume = m.engine.Volume()
	case "m":
		m.engine.ToggleMute()
	case "h":
		if track, ok := m.ctrl.Current(); ok {
			if m.heard.Toggle(track.ID) {
				m.setStatus("marked heard")
			} else {
				m.setStatus("marked unheard")
			}
		}
	case "s":
		m.skipHeard = !m.skipHeard
		return m.rebuild()
	case "r":
		return m.rebuild()
	case "x":
		return m.shutdown(true)
	}
	return m, nil
}

// rebuild makes a fresh shuffled order from the pool under the current
// skip-heard setting. The active track keeps playing from its slot in the
// new order when it survives the filter.
func (m Model) rebuild() (Model, tea.Cmd) {
	order := playlist.BuildOrder(m.pool, playlist.Options{SkipHeard: m.skipHeard}, playlist.Deps{
		IsHeard:  m.heard.IsHeard,
		Finished: m.store.Finished,
	}, nil)

	if len(order) == 0 {
		m.setStatus("nothing left to play")
		return m, nil
	}

	start := 0
	if current, ok := m.ctrl.Current(); ok {
		for i, t := range order {
			if t.ID == current.ID {
				start = i
				break
			}
		}
	}

	load, ok := m.ctrl.PlayQueue(order, start)
	if !ok {
		return m, nil
	}
	return m, m.loadCmd(load)
}

func (m Model) shutdown(closeSession bool) (Model, tea.Cmd) {
	m.quitting = true
	if closeSession {
		m.ctrl.ClosePlayer()
	}
	m.engine.Close()
	m.heard.Flush()
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusTime = time.Now()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = 50
	}

	header := headerStyle.Render("sipurim")

	track, ok := m.ctrl.Current()
	if !ok {
		return "\n  " + header + "\n\n  " + statusStyle.Render("nothing playing") + "\n"
	}

	title := titleStyle.Render(track.Title)
	if m.heard.IsHeard(track.ID) {
		title += " " + heardStyle.Render("✓")
	}

	subtitle := ""
	if series, ok := track.SeriesTitle.Get(); ok {
		subtitle = seriesStyle.Render(series)
	}

	elapsedStr := timeStyle.Render(util.FormatDuration(m.elapsed))
	durationStr := timeStyle.Render(util.FormatDuration(m.duration))
	barWidth := w - len(util.FormatDuration(m.elapsed)) - len(util.FormatDuration(m.duration)) - 6
	bar := renderProgressBar(m.elapsed.Seconds(), m.duration.Seconds(), barWidth)
	progressLine := fmt.Sprintf("%s %s %s", elapsedStr, bar, durationStr)

	statusLine := m.statusLine(w)

	help := helpStyle.Render(helpText())

	lines := "\n"
	lines += "  " + header + "\n"
	lines += "\n"
	lines += "  " + title + "\n"
	if subtitle != "" {
		lines += "  " + subtitle + "\n"
	}
	lines += "\n"
	lines += "  " + progressLine + "\n"
	lines += "\n"
	lines += "  " + statusLine + "\n"
	if m.status != "" {
		lines += "  " + helpStyle.Render(m.status) + "\n"
	}
	lines += "\n"
	lines += "  " + help + "\n"

	return lines
}

func (m Model) statusLine(w int) string {
	var icon, text string
	switch m.ctrl.State() {
	case controller.Playing:
		icon, text = "▶", "playing"
	case controller.Paused:
		icon, text = "❚❚", "paused"
	case controller.Loading:
		icon, text = "…", "loading"
	case controller.Blocked:
		return blockedStyle.Render("⏻ playback blocked") + statusStyle.Render("  space to retry")
	default:
		icon, text = "", "idle"
	}

	left := fmt.Sprintf("%s  %s", icon, text)
	if slot := renderQueueSlot(m.ctrl.Index(), len(m.ctrl.Tracks())); slot != "" {
		left += "  " + slot
	}
	vol := renderVolume(m.volume, m.engine.Muted())

	gap := w - len(left) - len(vol) - 4
	if gap < 2 {
		gap = 2
	}
	pad := make([]byte, gap)
	for i := range pad {
		pad[i] = ' '
	}
	return statusStyle.Render(left) + string(pad) + statusStyle.Render(vol)
}
