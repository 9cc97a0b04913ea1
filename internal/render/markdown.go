package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const (
	RendererAuto    = "auto"
	RendererGlamour = "glamour"
	RendererPlain   = "plain"
)

// Renderers lists the accepted --renderer values.
var Renderers = []string{RendererAuto, RendererGlamour, RendererPlain}

// Renderer turns model output into terminal text.
type Renderer interface {
	Render(text string) string
}

type plainRenderer struct{}

func (plainRenderer) Render(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

type glamourRenderer struct {
	tr *glamour.TermRenderer
}

func (g glamourRenderer) Render(text string) string {
	rendered, err := g.tr.Render(NormalizeModelOutput(text))
	if err != nil {
		return plainRenderer{}.Render(text)
	}
	return rendered
}

// New builds the renderer named by kind. "auto" picks glamour when out is a
// terminal and plain text otherwise. style is a glamour style name; empty
// means auto-detect from the terminal background.
func New(kind, style string, out io.Writer) (Renderer, error) {
	switch kind {
	case "", RendererAuto:
		if !IsTerminal(out) {
			return plainRenderer{}, nil
		}
		return newGlamour(style, true)
	case RendererGlamour:
		return newGlamour(style, IsTerminal(out))
	case RendererPlain:
		return plainRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown renderer %q (valid: %s)", kind, strings.Join(Renderers, ", "))
}

func newGlamour(style string, tty bool) (Renderer, error) {
	var opts []glamour.TermRendererOption
	switch {
	case style != "":
		opts = append(opts, glamour.WithStandardStyle(style))
	case tty:
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle("notty"))
	}
	// Wrapping is left to the terminal so code blocks stay intact.
	opts = append(opts, glamour.WithWordWrap(0))

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return glamourRenderer{tr: tr}, nil
}

// Markdown renders text with the auto renderer for stdout.
func Markdown(text string) string {
	r, err := New(RendererAuto, "", os.Stdout)
	if err != nil {
		return text
	}
	return r.Render(text)
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
