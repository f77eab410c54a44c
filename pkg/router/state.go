package router

import (
	"context"

	"github.com/vango-dev/navrouter/pkg/browser"
	"github.com/vango-dev/navrouter/pkg/history"
)

// Keys of the data wrapper written by WithReturnState.
const (
	returnStateKey = "returnState"
	returnDataKey  = "data"
)

// currentState returns the top of the history stack if it describes the
// live location. Otherwise the stack is cleared and rebuilt with a state
// synthesized from the location; a fragment that is not a state id is
// stripped from the native entry.
func (r *Router) currentState(ctx context.Context) (history.State, error) {
	loc := r.window.Location()
	live := browser.PathOf(loc, true, true)

	top, ok, err := r.history.Latest(ctx)
	if err != nil {
		return history.State{}, err
	}
	if ok && top.Path == live {
		return top, nil
	}

	if err := r.history.Clear(ctx); err != nil {
		return history.State{}, err
	}
	state := history.State{Path: browser.PathOf(loc, true, false)}
	if loc.Fragment != "" {
		r.window.ReplaceState(state.Path)
	}
	if _, err := r.history.Push(ctx, state, false); err != nil {
		return history.State{}, err
	}
	r.logger.Debug("history rebuilt from location", "path", state.Path, "stale", top.Path)
	return state, nil
}

// normalizeState fills in s relative to the current state:
//   - without data, any id is dropped
//   - an empty path means the current path
//   - without data on the current path, the current data and id are kept
//   - data equal to the current data keeps the current id
//   - other data gets a fresh id
//
// States with data end in "#<id>"; states without data carry no fragment.
func (r *Router) normalizeState(ctx context.Context, s history.State) (normalized, current history.State, err error) {
	current, err = r.currentState(ctx)
	if err != nil {
		return history.State{}, history.State{}, err
	}

	out := s
	if out.Data == nil {
		out.ID = ""
	}
	if out.Path == "" {
		out.Path = current.Path
	}
	out.Path = canonicalPath(out.Path)

	switch {
	case out.Data == nil && out.Path == stripHash(current.Path):
		out.Data = current.Data
		out.ID = current.ID
	case out.Data != nil && history.DataEqual(out.Data, current.Data):
		out.ID = current.ID
	case out.Data != nil:
		out.ID = r.newID()
	}

	if out.Data != nil {
		out.Path += "#" + out.ID
	} else {
		out.ID = ""
	}
	return out, current, nil
}

// wrapReturnState builds the data of a state that remembers where to
// return to.
func wrapReturnState(ret history.State, data any) map[string]any {
	inner := map[string]any{"path": ret.Path}
	if ret.Data != nil {
		inner["data"] = ret.Data
		inner["id"] = ret.ID
	}
	out := map[string]any{returnStateKey: inner}
	if data != nil {
		out[returnDataKey] = data
	}
	return out
}

// ReturnStateOf extracts the state recorded with WithReturnState.
func ReturnStateOf(s history.State) (history.State, bool) {
	w, ok := returnWrapper(s.Data)
	if !ok {
		return history.State{}, false
	}
	inner, ok := w[returnStateKey].(map[string]any)
	if !ok {
		return history.State{}, false
	}
	ret, err := history.StateFromMap(inner)
	if err != nil {
		return history.State{}, false
	}
	return ret, true
}

// StateDataOf returns the application data of s, unwrapping the
// WithReturnState envelope if present.
func StateDataOf(s history.State) any {
	if w, ok := returnWrapper(s.Data); ok {
		return w[returnDataKey]
	}
	return s.Data
}

func returnWrapper(data any) (map[string]any, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	if _, ok := m[returnStateKey]; !ok {
		return nil, false
	}
	for k := range m {
		if k != returnStateKey && k != returnDataKey {
			return nil, false
		}
	}
	return m, true
}
