// Package dialog presents blocking error dialogs to the user. Rendering is a
// platform collaborator; the console presenter is the default.
package dialog

import (
	"fmt"
	"io"
	"os"
)

// Presenter shows a modal message and returns only once the user has seen it.
type Presenter interface {
	// Fatal presents a bootstrap-fatal error. It must not return before the
	// message is delivered; the caller terminates the process afterwards.
	Fatal(title, message string)
}

// Console writes dialogs to a terminal stream.
type Console struct {
	Out io.Writer
}

// NewConsole returns a presenter writing to stderr.
func NewConsole() *Console {
	return &Console{Out: os.Stderr}
}

func (c *Console) Fatal(title, message string) {
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "\n%s\n\n%s\n", title, message)
}
