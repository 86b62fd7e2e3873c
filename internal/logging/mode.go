package logging

// Mode picks the default sink and verbosity.
type Mode uint8

const (
	ModeCLI Mode = iota + 1
	ModeDaemon
)

// ModeFor returns the mode for a top-level command name.
func ModeFor(command string) Mode {
	if command == "daemon" {
		return ModeDaemon
	}
	return ModeCLI
}

func (m Mode) String() string {
	if m == ModeDaemon {
		return "daemon"
	}
	return "cli"
}
