//go:build unix

package shellrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"inkwell/internal/shell"
)

// notifyActivate maps SIGUSR1 to the dock-reactivation event on platforms
// that deliver it.
func notifyActivate(ctx context.Context, coord *shell.Coordinator) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				signal.Stop(ch)
				return
			case <-ch:
				coord.OnActivate()
			}
		}
	}()
}
