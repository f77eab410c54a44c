package router

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/reactive"
)

// DefaultLanguage is the language of routes that do not name one.
const DefaultLanguage = "en"

type config struct {
	scheduler        reactive.Scheduler
	logger           *slog.Logger
	historyKey       string
	maxHistoryLength int
	defaultLanguage  string
	language         *reactive.Cell[string]
	observer         Observer
	newID            history.IDGenerator
	tracerProvider   trace.TracerProvider
}

// Option configures a Router.
type Option func(*config)

// WithScheduler sets where deferred publishes run. Default: reactive.Immediate.
func WithScheduler(s reactive.Scheduler) Option {
	return func(c *config) {
		c.scheduler = s
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithHistoryKey sets the storage key of the history stack. Default: "history".
func WithHistoryKey(key string) Option {
	return func(c *config) {
		c.historyKey = key
	}
}

// WithMaxHistoryLength bounds the history stack. Default: 15.
func WithMaxHistoryLength(n int) Option {
	return func(c *config) {
		c.maxHistoryLength = n
	}
}

// WithDefaultLanguage sets the language of routes without one. Default: "en".
func WithDefaultLanguage(lang string) Option {
	return func(c *config) {
		c.defaultLanguage = lang
	}
}

// WithLanguage sets the observable active language. While the router is
// active, changes re-resolve the current route in the new language.
func WithLanguage(lang *reactive.Cell[string]) Option {
	return func(c *config) {
		c.language = lang
	}
}

// WithObserver receives router events.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// WithIDGenerator sets how state ids are generated. Default: history.NewID.
func WithIDGenerator(fn history.IDGenerator) Option {
	return func(c *config) {
		c.newID = fn
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = tp
	}
}
