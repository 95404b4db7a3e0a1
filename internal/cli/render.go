package cli

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pratik-anurag/openport/internal/render"
)

func renderOptions(colorMode string, out io.Writer) render.Options {
	return render.Options{Color: resolveColor(colorMode, out)}
}

func resolveColor(mode string, out io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		f, ok := out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
}
