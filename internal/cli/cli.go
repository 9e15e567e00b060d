package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/canonical/cou/internal/analysis"
	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/executor"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/openstack"
	"github.com/canonical/cou/internal/planner"
)

// Logger is the minimal logging surface cli.Run needs.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
}

// Dependencies bundles everything Run needs beyond the parsed Args: the
// live controller, the release catalog, output streams, and the pieces
// executor.Execute itself requires.
type Dependencies struct {
	Controller juju.Controller
	Catalog    *openstack.Catalog
	Timeouts   application.Timeouts
	BackupDir  string

	Logger   Logger
	Stdout   io.Writer
	Stderr   io.Writer
	Prompter executor.Prompter

	RunID string
	Ctl   *executor.CancelController
}

// Run parses args and drives the requested subcommand to completion,
// returning the process exit code.
func Run(ctx context.Context, args []string, deps Dependencies) executor.ExitCode {
	parsed, err := ParseArgs(args)
	if err != nil {
		fmt.Fprintln(deps.Stderr, err)
		return executor.ExitFailure
	}

	switch parsed.Subcommand {
	case "help":
		printHelp(deps.Stdout, parsed.HelpTopic)
		return executor.ExitSuccess
	case "plan", "run":
	default:
		fmt.Fprintf(deps.Stderr, "unknown subcommand %q\n", parsed.Subcommand)
		return executor.ExitFailure
	}

	a, err := analysis.Create(ctx, deps.Controller, deps.Catalog)
	if err != nil {
		return fail(deps, ctx, err)
	}
	RenderAnalysisSummary(deps.Stdout, a)
	for _, msg := range a.SweepUnclassified() {
		deps.Logger.Warningf("%s", msg)
	}

	planOpts := planner.Options{
		Force:            parsed.Force,
		NoBackup:         !parsed.Backup,
		BackupDir:        deps.BackupDir,
		Timeouts:         deps.Timeouts,
		SkipControlPlane: parsed.Scope == ScopeDataPlane,
		SkipDataPlane:    parsed.Scope == ScopeControlPlane,
		Hypervisor: planner.HypervisorOptions{
			Force:             parsed.Force,
			Machines:          parsed.Machines,
			Hostnames:         parsed.Hostnames,
			AvailabilityZones: parsed.AvailabilityZones,
		},
	}

	result, err := planner.GeneratePlan(ctx, deps.Controller, a, deps.Catalog, planOpts)
	if err != nil {
		return fail(deps, ctx, err)
	}
	for _, advisory := range result.Advisories {
		deps.Logger.Infof("skipped: %s", advisory)
	}

	if parsed.Subcommand == "plan" {
		RenderPlan(deps.Stdout, result)
		return executor.ExitSuccess
	}

	execOpts := executor.Options{
		Interactive: parsed.Interactive,
		Prompter:    deps.Prompter,
		Logger:      deps.Logger,
		RunID:       deps.RunID,
	}
	code, err := executor.Execute(ctx, result.Tree, execOpts, deps.Ctl)
	if err != nil {
		deps.Logger.Warningf("upgrade did not complete: %s", err)
	}
	return code
}

func fail(deps Dependencies, ctx context.Context, err error) executor.ExitCode {
	deps.Logger.Warningf("%s", err)
	if ctx.Err() != nil {
		return executor.ExitInterrupted
	}
	return executor.ExitFailure
}

func printHelp(out io.Writer, topic string) {
	if topic != "" {
		fmt.Fprintf(out, "no detailed help is available for %q yet\n", topic)
		return
	}
	fmt.Fprint(out, `charmed-openstack-upgrader

Usage:
  cou plan [control-plane|data-plane] [options]
  cou run  [control-plane|data-plane] [options]
  cou help [subcommand]

Common options:
  --model <name>              Juju model to operate on
  --verbose, -v                increase log verbosity (repeatable)
  --quiet, -q                  only log warnings and above
  --parallel                   accepted; does not change the plan or how it runs
  --backup / --no-backup       take a database backup before upgrading (default: backup)

run-only options:
  --interactive / --no-interactive   prompt before every step (default: interactive)

data-plane options (mutually exclusive):
  --machine <id>[,<id>...]
  --hostname <name>[,<name>...]
  --availability-zone <az>[,<az>...]
`)
}
