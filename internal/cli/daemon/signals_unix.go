//go:build unix

package daemon

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// notifyTriggers maps SIGHUP to a restart and SIGUSR1 to a save.
func notifyTriggers() (<-chan trigger, func()) {
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, unix.SIGHUP, unix.SIGUSR1)
	out := make(chan trigger, 4)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				t := triggerSave
				if sig == unix.SIGHUP {
					t = triggerRestart
				}
				select {
				case out <- t:
				case <-done:
					return
				}
			}
		}
	}()
	return out, func() {
		signal.Stop(sigs)
		close(done)
	}
}
