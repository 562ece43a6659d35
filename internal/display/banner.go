package display

import (
	"fmt"
	"os"

	"github.com/backmassage/shelve/internal/term"
)

// PrintBanner prints the ASCII art banner; colored Magenta when enabled.
func PrintBanner() {
	art := ` ____  _          _
/ ___|| |__   ___| |_   _____
\___ \| '_ \ / _ \ \ \ / / _ \
 ___) | | | |  __/ |\ V /  __/
|____/|_| |_|\___|_| \_/ \___|
`
	if term.Enabled() {
		term.Magenta.Fprint(os.Stdout, art)
		fmt.Fprintln(os.Stdout)
		return
	}
	fmt.Fprint(os.Stdout, art)
	fmt.Fprintln(os.Stdout)
}
