package root

import (
	"context"
	"errors"

	"github.com/regenrek/winrestore/internal/restart"
	"github.com/regenrek/winrestore/internal/winid"
	"github.com/regenrek/winrestore/internal/winstate"
)

// ErrNoDisplay is returned when a command needs the X server and none can
// be reached.
var ErrNoDisplay = errors.New("no display available")

// errorCode classifies handler errors for JSON envelopes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, winstate.ErrCorruptState):
		return "corrupt_state"
	case errors.Is(err, ErrNoDisplay):
		return "no_display"
	case errors.Is(err, winid.ErrUnknownStrategy):
		return "unknown_strategy"
	case errors.Is(err, restart.ErrNoCommand):
		return "no_restart_command"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "command_failed"
	}
}
