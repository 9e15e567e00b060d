package cli_test

import (
	"bytes"
	"context"
	"strings"

	"github.com/juju/tc"

	"github.com/canonical/cou/internal/cli"
	"github.com/canonical/cou/internal/executor"
)

type promptSuite struct{}

var _ = tc.Suite(&promptSuite{})

func (s *promptSuite) TestContinueAnswer(c *tc.C) {
	out := &bytes.Buffer{}
	p := cli.NewTerminalPrompter(out, strings.NewReader("y\n"))
	answer, err := p.Prompt(context.Background(), "do the thing")
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(answer, tc.Equals, executor.AnswerContinue)
	c.Assert(out.String(), tc.Contains, "do the thing")
}

func (s *promptSuite) TestAbortAnswer(c *tc.C) {
	p := cli.NewTerminalPrompter(&bytes.Buffer{}, strings.NewReader("a\n"))
	answer, err := p.Prompt(context.Background(), "do the thing")
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(answer, tc.Equals, executor.AnswerAbort)
}

func (s *promptSuite) TestSkipAnswer(c *tc.C) {
	p := cli.NewTerminalPrompter(&bytes.Buffer{}, strings.NewReader("n\n"))
	answer, err := p.Prompt(context.Background(), "do the thing")
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(answer, tc.Equals, executor.AnswerSkip)
}

func (s *promptSuite) TestRetriesOnInvalidInput(c *tc.C) {
	out := &bytes.Buffer{}
	p := cli.NewTerminalPrompter(out, strings.NewReader("bogus\ny\n"))
	answer, err := p.Prompt(context.Background(), "do the thing")
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(answer, tc.Equals, executor.AnswerContinue)
	c.Assert(out.String(), tc.Contains, "No valid input provided!")
}
