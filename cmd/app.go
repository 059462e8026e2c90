package cmd

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/zjrosen/pitchplay/internal/bank/application"
	"github.com/zjrosen/pitchplay/internal/bank/infrastructure"
	"github.com/zjrosen/pitchplay/internal/config"
	"github.com/zjrosen/pitchplay/internal/playback"
	"github.com/zjrosen/pitchplay/internal/sound"
)

// app is the object graph shared by the subcommands.
type app struct {
	registry *infrastructure.Registry
	fetcher  *infrastructure.MuxFetcher
	loader   *application.Loader
	backend  sound.Backend
	player   *playback.Player
}

// newApp wires the registry, fetchers, loader, audio backend and player from
// c. dryRun forces the null backend.
func newApp(c config.Config, dryRun bool) (*app, error) {
	httpFetcher := infrastructure.NewHTTPFetcher(
		infrastructure.NewHTTPClient(infrastructure.HTTPClientConfig{Timeout: c.Fetch.Timeout}),
		c.Fetch.UserAgent,
	)
	fetcher := infrastructure.NewMuxFetcher(httpFetcher)
	registry := infrastructure.NewRegistry()

	kind := c.Audio.Backend
	if dryRun {
		kind = sound.BackendNull
	}
	backend, err := sound.NewBackend(sound.BackendConfig{
		Kind:       kind,
		Command:    c.Audio.Command,
		SampleRate: c.Audio.SampleRate,
	}, fetcher)
	if err != nil {
		return nil, err
	}

	return &app{
		registry: registry,
		fetcher:  fetcher,
		loader:   application.NewLoader(fetcher, registry),
		backend:  backend,
		player:   playback.NewPlayer(sound.NewFactory(backend, ""), registry),
	}, nil
}

// bankIDFor derives a registry id from a locator: the file name without its
// extension, or "data" for inline payloads.
func bankIDFor(locator string) string {
	if infrastructure.Scheme(locator) == "data" {
		return "data"
	}
	var name string
	if u, err := url.Parse(locator); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		name = path.Base(u.Path)
	} else {
		name = filepath.Base(locator)
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		return "bank"
	}
	return name
}
