//go:build !unix

package shellrun

import (
	"context"

	"inkwell/internal/shell"
)

// notifyActivate is a no-op where SIGUSR1 does not exist; reactivation
// arrives via the Shell.Activate IPC call instead.
func notifyActivate(context.Context, *shell.Coordinator) {}
