package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/navrouter/internal/config"
	"github.com/vango-dev/navrouter/pkg/browser"
	"github.com/vango-dev/navrouter/pkg/reactive"
	"github.com/vango-dev/navrouter/pkg/router"
	"github.com/vango-dev/navrouter/pkg/storage"
)

// openRouter builds a configured router over a simulated window at url.
// Relative URLs are resolved against the configured origin.
func openRouter(ctx context.Context, cfg *config.Config, url, lang string, kv storage.KV) (*router.Router, *browser.Simulator, error) {
	if strings.HasPrefix(url, "/") {
		url = cfg.Server.Origin + url
	}
	win, err := browser.NewSimulator(url)
	if err != nil {
		return nil, nil, err
	}

	opts := append(cfg.RouterOptions(),
		router.WithScheduler(reactive.Immediate{}),
		router.WithLogger(slog.Default()))
	if lang != "" {
		opts = append(opts, router.WithLanguage(reactive.NewCell(lang)))
	}

	r := router.New(win, kv, opts...)
	if err := r.ConfigureRoutes(ctx, cfg.Routes); err != nil {
		r.Close()
		return nil, nil, err
	}
	return r, win, nil
}

// openStore opens the configured backend, scoped to a dev server session
// when one is named.
func openStore(ctx context.Context, cfg *config.Config, session string) (storage.KV, error) {
	kv, err := storage.Open(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, err
	}
	if session != "" {
		return sessionStore{KV: storage.Prefixed(kv, "session:"+session+":"), owner: kv}, nil
	}
	return kv, nil
}

// sessionStore closes the backend it was carved from.
type sessionStore struct {
	storage.KV
	owner storage.KV
}

func (s sessionStore) Close() error {
	return s.owner.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
