package telemetry

import (
	"context"

	"github.com/vango-dev/navrouter/pkg/router"
)

type multi []router.Observer

// Multi fans events out to observers in order. Nil observers are skipped.
func Multi(observers ...router.Observer) router.Observer {
	out := make(multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multi) OnPublish(ctx context.Context, v router.RouteAndState) {
	for _, o := range m {
		o.OnPublish(ctx, v)
	}
}

func (m multi) OnNavigate(ctx context.Context, kind router.NavigationKind, path string) {
	for _, o := range m {
		o.OnNavigate(ctx, kind, path)
	}
}

func (m multi) OnRedirect(ctx context.Context, from, to string) {
	for _, o := range m {
		o.OnRedirect(ctx, from, to)
	}
}

func (m multi) OnError(ctx context.Context, op string, err error) {
	for _, o := range m {
		o.OnError(ctx, op, err)
	}
}
