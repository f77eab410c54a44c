package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/vango-dev/navrouter/internal/errors"
)

// State is a history entry.
type State struct {
	// Path is the location path, with query and, when Data is set, a
	// "#<id>" fragment.
	Path string `json:"path"`

	// Data is optional application state for the entry. Nil means absent.
	Data any `json:"data,omitempty"`

	// ID is set iff Data is set.
	ID string `json:"id,omitempty"`
}

// allowedKeys are the only keys a serialized state may carry.
var allowedKeys = map[string]bool{"path": true, "data": true, "id": true}

// UnmarshalJSON decodes a state, rejecting unknown keys.
func (s *State) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.New(errors.CodeInvalidStateShape).Wrap(err)
	}
	if raw == nil {
		return errors.New(errors.CodeInvalidStateShape).WithDetail("state is null")
	}

	var out State
	for k, v := range raw {
		switch k {
		case "path":
			if err := json.Unmarshal(v, &out.Path); err != nil {
				return errors.New(errors.CodeInvalidStateShape).WithDetail("path must be a string")
			}
		case "id":
			if err := json.Unmarshal(v, &out.ID); err != nil {
				return errors.New(errors.CodeInvalidStateShape).WithDetail("id must be a string")
			}
		case "data":
			if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				continue
			}
			if err := json.Unmarshal(v, &out.Data); err != nil {
				return errors.New(errors.CodeInvalidStateShape).Wrap(err)
			}
		default:
			return errors.New(errors.CodeInvalidStateShape).WithDetailf("unexpected key %q", k)
		}
	}
	*s = out
	return nil
}

// StateFromMap converts an untyped state object, rejecting keys other than
// path, data and id.
func StateFromMap(m map[string]any) (State, error) {
	if m == nil {
		return State{}, errors.New(errors.CodeInvalidStateShape).WithDetail("state is nil")
	}

	var s State
	for k, v := range m {
		if !allowedKeys[k] {
			return State{}, errors.New(errors.CodeInvalidStateShape).WithDetailf("unexpected key %q", k)
		}
		switch k {
		case "path":
			p, ok := v.(string)
			if !ok && v != nil {
				return State{}, errors.New(errors.CodeInvalidStateShape).WithDetailf("path must be a string, got %T", v)
			}
			s.Path = p
		case "id":
			id, ok := v.(string)
			if !ok && v != nil {
				return State{}, errors.New(errors.CodeInvalidStateShape).WithDetailf("id must be a string, got %T", v)
			}
			s.ID = id
		case "data":
			s.Data = v
		}
	}
	return s, nil
}

// HasData reports whether the state carries application data.
func (s State) HasData() bool {
	return s.Data != nil
}

// String returns a compact description for logs.
func (s State) String() string {
	if s.Data == nil {
		return s.Path
	}
	return fmt.Sprintf("%s (id=%s)", s.Path, s.ID)
}

// Equal reports whether two states have the same path, id and data.
func Equal(a, b State) bool {
	return a.Path == b.Path && a.ID == b.ID && DataEqual(a.Data, b.Data)
}

// DataEqual compares state data by canonical JSON encoding, so values that
// went through storage (numbers decode as float64) still compare equal.
func DataEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}

// IDGenerator produces unique state ids.
type IDGenerator func() string

// NewID returns a random state id.
func NewID() string {
	return uuid.NewString()
}
