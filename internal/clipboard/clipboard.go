// Package clipboard exposes the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available, for
// example on a Linux host without xclip, xsel or wl-copy.
var ErrUnsupported = errors.New("clipboard is not supported on this system")

// System writes to the operating system clipboard.
type System struct{}

// WriteAll copies text to the clipboard.
func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}
