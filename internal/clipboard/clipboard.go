// Package clipboard copies report text to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrNoTool is returned when the platform has no usable clipboard backend
// (on Linux: none of wl-copy, xclip or xsel is installed).
var ErrNoTool = errors.New("no suitable clipboard tool found")

// Replaced in tests.
var (
	writeAll    = clipboard.WriteAll
	unsupported = func() bool { return clipboard.Unsupported }
)

// CopyText copies plain text to the system clipboard.
func CopyText(text string) error {
	if unsupported() {
		return fmt.Errorf("%w (tried: wl-copy, xclip, xsel)", ErrNoTool)
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}
