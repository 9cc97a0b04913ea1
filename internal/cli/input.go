package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/earlysvahn/ngpt/internal/utils"
)

// ErrNoInput is returned when input ends before a line is read.
var ErrNoInput = errors.New("no input")

// Prompter asks single-line questions on a reader/writer pair.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints label and returns the trimmed line typed by the user.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskDefault is Ask where an empty answer keeps def.
func (p *Prompter) AskDefault(label, def string) (string, error) {
	v, err := p.Ask(label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// Confirm asks a [y/N] question. Anything but y/yes is a no.
func (p *Prompter) Confirm(question string) (bool, error) {
	v, err := p.Ask(question + " [y/N] ")
	if err != nil {
		if errors.Is(err, ErrNoInput) {
			return false, nil
		}
		return false, err
	}
	return utils.IsYes(v), nil
}
