// Package cli parses the upgrader's command line, renders the analysis/
// plan output, and drives interactive prompting, matching
// original_source/cou/cli.py and commands.py's parser tree.
package cli

import (
	"fmt"
	"strings"

	"github.com/juju/gnuflag"
)

// Scope is the "control-plane"/"data-plane" child scope plan/run accept.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeControlPlane
	ScopeDataPlane
)

// Args is the fully parsed command line.
type Args struct {
	Subcommand string // "plan", "run", or "help"
	Scope      Scope

	Model       string
	Verbosity   int // number of -v occurrences
	Quiet       bool
	Parallel    bool
	Backup      bool
	Interactive bool // run only; defaults true

	// Data-plane targeting, mutually exclusive.
	Machines          []string
	Hostnames         []string
	AvailabilityZones []string

	Force bool

	HelpTopic string // argument to "help", if any
}

// csvFlag accumulates comma-separated and/or repeated flag values into a
// single string slice, the gnuflag.Value idiom juju-juju uses for list
// flags (e.g. --machine m1,m2 --machine m3).
type csvFlag struct{ values *[]string }

func (f csvFlag) String() string {
	if f.values == nil {
		return ""
	}
	return strings.Join(*f.values, ",")
}

func (f csvFlag) Set(v string) error {
	*f.values = append(*f.values, strings.Split(v, ",")...)
	return nil
}

// ParseArgs parses a full command line, args[0] being the subcommand.
func ParseArgs(args []string) (*Args, error) {
	if len(args) == 0 {
		return &Args{Subcommand: "help"}, nil
	}

	result := &Args{Subcommand: args[0], Interactive: true, Backup: true}
	rest := args[1:]

	switch result.Subcommand {
	case "help":
		if len(rest) > 0 {
			result.HelpTopic = rest[0]
		}
		return result, nil
	case "plan", "run":
	default:
		return nil, fmt.Errorf("unknown subcommand %q (expected plan, run, or help)", result.Subcommand)
	}

	if len(rest) > 0 {
		switch rest[0] {
		case "control-plane":
			result.Scope = ScopeControlPlane
			rest = rest[1:]
		case "data-plane":
			result.Scope = ScopeDataPlane
			rest = rest[1:]
		}
	}

	fs := gnuflag.NewFlagSet(result.Subcommand, gnuflag.ContinueOnError)
	fs.StringVar(&result.Model, "model", "", "juju model to operate on")
	fs.BoolVar(&result.Quiet, "quiet", false, "only log warnings and above")
	fs.BoolVar(&result.Quiet, "q", false, "")
	fs.BoolVar(&result.Parallel, "parallel", false, "accepted; does not change the plan or how it runs")
	fs.BoolVar(&result.Backup, "backup", true, "take a database backup before upgrading")
	noBackup := false
	fs.BoolVar(&noBackup, "no-backup", false, "skip the pre-upgrade database backup")
	fs.BoolVar(&result.Force, "force", false, "force hypervisor upgrades that would otherwise be refused")

	verbose := verboseCounter{count: &result.Verbosity}
	fs.Var(&verbose, "verbose", "increase log verbosity; repeatable")
	fs.Var(&verbose, "v", "")

	noInteractive := false
	if result.Subcommand == "run" {
		fs.BoolVar(&result.Interactive, "interactive", true, "prompt before every step")
		fs.BoolVar(&noInteractive, "no-interactive", false, "run without prompting")
	}

	if result.Scope == ScopeDataPlane {
		fs.Var(csvFlag{&result.Machines}, "machine", "restrict to these machine IDs (repeatable/comma-separated)")
		fs.Var(csvFlag{&result.Hostnames}, "hostname", "restrict to these hostnames (repeatable/comma-separated)")
		fs.Var(csvFlag{&result.AvailabilityZones}, "availability-zone", "restrict to these availability zones (repeatable/comma-separated)")
	}

	if err := fs.Parse(rest); err != nil {
		return nil, err
	}
	if noBackup {
		result.Backup = false
	}
	if noInteractive {
		result.Interactive = false
	}
	if err := validateTargeting(result); err != nil {
		return nil, err
	}
	return result, nil
}

func validateTargeting(a *Args) error {
	groups := 0
	for _, g := range [][]string{a.Machines, a.Hostnames, a.AvailabilityZones} {
		if len(g) > 0 {
			groups++
		}
	}
	if groups > 1 {
		return fmt.Errorf("--machine, --hostname, and --availability-zone are mutually exclusive")
	}
	if a.Quiet && a.Verbosity > 0 {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	return nil
}

// verboseCounter implements gnuflag.Value for a repeatable, argument-less
// flag: every occurrence increments the target counter by one.
type verboseCounter struct{ count *int }

func (c *verboseCounter) String() string {
	if c.count == nil {
		return "0"
	}
	return fmt.Sprintf("%d", *c.count)
}

func (c *verboseCounter) Set(string) error {
	*c.count++
	return nil
}

func (c *verboseCounter) IsBoolFlag() bool { return true }

// LogLevel maps verbosity/quiet into the loggo level string internal/logging
// expects: --quiet -> WARNING, plain -> INFO, one -v -> DEBUG, two+ -> TRACE.
func (a *Args) LogLevel() string {
	switch {
	case a.Quiet:
		return "WARNING"
	case a.Verbosity >= 2:
		return "TRACE"
	case a.Verbosity == 1:
		return "DEBUG"
	default:
		return "INFO"
	}
}
