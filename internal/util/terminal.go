package util

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// IsTerminal checks if the given file descriptor is a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// terminalWidth returns the width of stdout, or 80 if not a terminal
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// NewProgressBar returns a bar counting total units, or nil when stdout is
// not a terminal or output is quiet. Callers must check for nil.
func NewProgressBar(total int, description, unit string) *progressbar.ProgressBar {
	if !IsTerminal(os.Stdout.Fd()) || IsQuiet() {
		return nil
	}
	width := terminalWidth() / 3
	if width > 40 {
		width = 40
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(width),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
