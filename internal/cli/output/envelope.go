package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// EnvelopeVersion changes when the envelope layout changes.
const EnvelopeVersion = 1

// Meta describes the invocation behind an envelope.
type Meta struct {
	Command    string    `json:"command"`
	Envelope   int       `json:"envelope"`
	Version    string    `json:"version,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	TS         time.Time `json:"ts"`
}

// Problem is the error part of a failed envelope.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope wraps every --json result. Exactly one of Data and Error is set.
type Envelope struct {
	OK    bool     `json:"ok"`
	Data  any      `json:"data,omitempty"`
	Error *Problem `json:"error,omitempty"`
	Meta  Meta     `json:"meta"`
}

// NewMeta stamps meta for command. A zero started leaves duration_ms at 0.
func NewMeta(command, version string, started time.Time) Meta {
	now := time.Now()
	meta := Meta{
		Command:  command,
		Envelope: EnvelopeVersion,
		Version:  version,
		TS:       now.UTC(),
	}
	if !started.IsZero() {
		meta.DurationMS = now.Sub(started).Milliseconds()
	}
	return meta
}

// Success wraps data.
func Success(meta Meta, data any) Envelope {
	return Envelope{OK: true, Data: data, Meta: meta}
}

// Failure wraps an error code and message.
func Failure(meta Meta, code, message string) Envelope {
	if code == "" {
		code = "command_failed"
	}
	return Envelope{OK: false, Error: &Problem{Code: code, Message: message}, Meta: meta}
}

// Write encodes env as a single JSON line.
func Write(w io.Writer, env Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("write %s envelope: %w", env.Meta.Command, err)
	}
	return nil
}
