package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/juju/ansiterm"

	"github.com/canonical/cou/internal/executor"
)

// TerminalPrompter implements executor.Prompter by printing a colored
// y/N/a (continue/skip/abort) prompt (red, with the option letters in
// bright red, mirroring original_source/cou/cli.py's colorama-based
// prompt) and reading one line of operator input at a time until it
// recognizes an answer.
type TerminalPrompter struct {
	Out io.Writer
	In  *bufio.Reader
}

// NewTerminalPrompter wraps out/in for interactive prompting.
func NewTerminalPrompter(out io.Writer, in io.Reader) *TerminalPrompter {
	return &TerminalPrompter{Out: out, In: bufio.NewReader(in)}
}

// Prompt satisfies executor.Prompter: it writes description plus the
// y/N/a options in red via ansiterm, then loops on stdin until the
// operator answers y (continue), n (skip) or a (abort), in either case.
// An empty or unrecognized line is
// rejected and the prompt repeats, matching the original's "No valid
// input provided!" retry loop.
func (p *TerminalPrompter) Prompt(ctx context.Context, description string) (executor.PromptAnswer, error) {
	for {
		if err := ctx.Err(); err != nil {
			return executor.AnswerAbort, err
		}
		p.render(description)
		line, err := p.In.ReadString('\n')
		if err != nil && line == "" {
			return executor.AnswerAbort, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y":
			return executor.AnswerContinue, nil
		case "a":
			return executor.AnswerAbort, nil
		case "n":
			return executor.AnswerSkip, nil
		default:
			fmt.Fprintln(p.Out, "No valid input provided!")
		}
	}
}

func (p *TerminalPrompter) render(description string) {
	w := ansiterm.NewWriter(p.Out)
	w.SetForeground(ansiterm.Red)
	fmt.Fprintf(w, "%s (", description)
	w.SetForeground(ansiterm.BrightRed)
	fmt.Fprint(w, "y")
	w.SetForeground(ansiterm.Red)
	fmt.Fprint(w, ")es/(")
	w.SetForeground(ansiterm.BrightRed)
	fmt.Fprint(w, "N")
	w.SetForeground(ansiterm.Red)
	fmt.Fprint(w, ")o/(")
	w.SetForeground(ansiterm.BrightRed)
	fmt.Fprint(w, "a")
	w.SetForeground(ansiterm.Red)
	fmt.Fprint(w, ")bort: ")
	w.Reset()
}
