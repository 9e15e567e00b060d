package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"

	"github.com/canonical/cou/internal/analysis"
	"github.com/canonical/cou/internal/planner"
	"github.com/canonical/cou/internal/step"
)

// RenderAnalysisSummary prints a one-line-per-application table of what
// Analysis.create found, the tabular complement to Analysis.String's plain
// text rendering.
func RenderAnalysisSummary(out io.Writer, a *analysis.Analysis) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("APPLICATION", "CHARM", "UNITS", "CURRENT RELEASE")
	for _, app := range a.Apps {
		release := "unknown"
		if r, err := app.CurrentOSRelease(); err == nil {
			release = r.String()
		}
		table.AddRow(app.Name, app.Charm, humanize.Comma(int64(len(app.Units))), release)
	}
	fmt.Fprintln(out, table)
}

// RenderPlan prints the dry-run plan tree (step.Step.String's indentation
// already encodes topology) plus a one-line summary of the target release
// and any advisories (applications dropped from planning).
func RenderPlan(out io.Writer, result *planner.Result) {
	fmt.Fprintln(out, result.Tree.String())
	fmt.Fprintf(out, "\nTarget release: %s (%s steps)\n", result.Target.String(), humanize.Comma(int64(countSteps(result.Tree))))
	for _, advisory := range result.Advisories {
		fmt.Fprintf(out, "Skipped: %s\n", advisory)
	}
}

func countSteps(s *step.Step) int {
	count := 1
	for _, child := range s.Children() {
		count += countSteps(child)
	}
	return count
}
