package config

import (
	"io"
	"os"

	"github.com/tauraamui/yuvcapture/pkg/configdef"
	"golang.org/x/term"
)

const (
	feedEnv      = "YUVCAPTURE_FEED"
	topicEnv     = "YUVCAPTURE_TOPIC"
	converterEnv = "YUVCAPTURE_CONVERTER"
)

var stdin io.Reader = os.Stdin
var stdout io.Writer = os.Stdout

var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type promptResolver struct {
	in          io.Reader
	out         io.Writer
	showPrompts bool
}

// DefaultResolver asks the operator on stdin. Prompts are only printed when
// stdin is a terminal, so piped answers produce clean output.
func DefaultResolver() configdef.Resolver {
	return NewPromptResolver(stdin, stdout, isTerminal())
}

func NewPromptResolver(in io.Reader, out io.Writer, showPrompts bool) configdef.Resolver {
	return promptResolver{in: in, out: out, showPrompts: showPrompts}
}

func (r promptResolver) Resolve() (configdef.Values, error) {
	return load(r.in, r.out, r.showPrompts)
}
