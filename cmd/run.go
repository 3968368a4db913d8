package cmd

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"

	"github.com/nadav-o/sipurim/internal/auth"
	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/config"
	"github.com/nadav-o/sipurim/internal/controller"
	"github.com/nadav-o/sipurim/internal/download"
	"github.com/nadav-o/sipurim/internal/log"
	"github.com/nadav-o/sipurim/internal/player"
	"github.com/nadav-o/sipurim/internal/progress"
	"github.com/nadav-o/sipurim/internal/ui"
	"github.com/nadav-o/sipurim/internal/where"
)

// listening bundles everything a playback session needs.
type listening struct {
	engine *player.Player
	store  *progress.Store
	heard  *progress.HeardSet
	ctrl   *controller.Controller
	cache  *download.Cache
	client *catalog.Client
}

// newListening wires the session. Works without a configured backend; the
// heard mirror is simply absent then.
func newListening() *listening {
	client, err := catalog.NewClient(auth.Session())
	if err != nil {
		log.Debugf("running without a backend: %v", err)
		client = nil
	}

	var mirror progress.Mirror
	if client != nil {
		mirror = client
	}

	engine := player.New()
	engine.SetVolume(viper.GetFloat64(config.KeyPlaybackVolume))

	store := progress.NewStore(where.Progress())
	heard := progress.NewHeardSet(where.Heard(), mirror)

	return &listening{
		engine: engine,
		store:  store,
		heard:  heard,
		ctrl:   controller.New(engine, store, heard),
		cache:  download.NewCache(),
		client: client,
	}
}

// fetchStories pulls the catalog and folds the signed-in user's remote heard
// marks into the local set. The merge is best-effort.
func (s *listening) fetchStories(ctx context.Context) ([]catalog.Track, error) {
	if s.client == nil {
		return nil, catalog.ErrNotConfigured
	}

	tracks, err := s.client.Stories(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.heard.MergeRemote(ctx); err != nil && !errors.Is(err, catalog.ErrNoSession) {
		log.Warnf("merging remote heard marks: %v", err)
	}
	return tracks, nil
}

// runPlayer hands the terminal to the now-playing screen.
func (s *listening) runPlayer(pool, order []catalog.Track, start int, skipHeard bool) error {
	m := ui.New(s.ctrl, s.engine, s.cache, s.store, s.heard, pool, order, start, skipHeard)
	_, err := tea.NewProgram(m).Run()
	s.heard.Flush()
	return err
}

func requireClient() (*catalog.Client, error) {
	return catalog.NewClient(auth.Session())
}
