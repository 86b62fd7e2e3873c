// Package winstate saves window frame rectangles under a settings key and
// applies them back to live windows matched by identifier.
package winstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/regenrek/winrestore/internal/host"
)

// ErrCorruptState is returned when the persisted value is not a valid
// record list.
var ErrCorruptState = errors.New("winstate: corrupt saved state")

// Record is one saved window. An empty ID marks a window whose identifier
// could not be resolved; it is persisted as null and never matches.
type Record struct {
	ID     string
	X      int
	Y      int
	Width  int
	Height int
}

type recordJSON struct {
	ID     *string `json:"id"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// NewRecord builds a record from an identifier and a frame.
func NewRecord(id string, r host.Rect) Record {
	return Record{ID: id, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Rect returns the saved frame.
func (r Record) Rect() host.Rect {
	return host.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	if r.ID != "" {
		id := r.ID
		out.ID = &id
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Record{X: in.X, Y: in.Y, Width: in.Width, Height: in.Height}
	if in.ID != nil {
		r.ID = *in.ID
	}
	return nil
}

// State is the ordered list of saved windows.
type State []Record

// Encode renders the state as the persisted JSON list.
func Encode(s State) (string, error) {
	if s == nil {
		s = State{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("winstate: encode: %w", err)
	}
	return string(data), nil
}

// Decode parses a persisted JSON list. Any malformed input, including a
// JSON value that is not a list, yields an error wrapping ErrCorruptState.
func Decode(raw string) (State, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty value", ErrCorruptState)
	}
	if trimmed == "null" {
		return State{}, nil
	}
	var s State
	if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if s == nil {
		s = State{}
	}
	return s, nil
}

// Resolved returns how many records carry an identifier.
func (s State) Resolved() int {
	n := 0
	for _, r := range s {
		if r.ID != "" {
			n++
		}
	}
	return n
}
