package output

import (
	"io"
	"os"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

var stdoutColor = initColorSupport()

// initColorSupport probes stdout once at startup.
func initColorSupport() bool {
	// Check if stdout is a terminal
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	// On Windows, enable ANSI escape sequences (handled in colors_windows.go)
	// On Unix-like systems, colors are supported if it's a terminal
	return enableANSI()
}

// palette gates ANSI codes per destination. Only an interactive stdout is
// colorized; files and pipes always receive plain text.
type palette struct {
	on bool
}

func paletteFor(w io.Writer) palette {
	return palette{on: w == os.Stdout && stdoutColor}
}

// paint returns the color code if this destination takes colors, empty
// string otherwise.
func (p palette) paint(code string) string {
	if p.on {
		return code
	}
	return ""
}
