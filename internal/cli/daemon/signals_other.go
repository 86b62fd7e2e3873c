//go:build !unix

package daemon

// notifyTriggers returns a channel that never fires; there are no
// restart signals on this platform.
func notifyTriggers() (<-chan trigger, func()) {
	return make(chan trigger), func() {}
}
