// Command cou is the charmed-openstack-upgrader CLI entrypoint: it wires
// configuration, logging, lifecycle events, a live controller connection,
// and two-stage SIGINT handling around internal/cli.Run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/canonical/cou/internal/cli"
	"github.com/canonical/cou/internal/config"
	"github.com/canonical/cou/internal/executor"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/logging"
	"github.com/canonical/cou/internal/openstack"
	"github.com/canonical/cou/internal/ssdlc"
)

func main() {
	os.Exit(int(run(os.Args[1:])))
}

func run(args []string) (code executor.ExitCode) {
	parsed, _ := cli.ParseArgs(args)
	explicitModel := ""
	if parsed != nil {
		explicitModel = parsed.Model
	}

	cfg, err := config.Load(explicitModel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return executor.ExitFailure
	}

	logLevel := "INFO"
	if parsed != nil {
		logLevel = parsed.LogLevel()
	}
	logResult, err := logging.Setup(logging.Config{ConsoleLevel: logLevel, LogDir: cfg.LogDir()})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return executor.ExitFailure
	}
	defer logResult.Close()
	logger := logResult.Logger

	ssdlc.LogSystemEvent(logger, ssdlc.Startup, "")
	defer func() {
		if r := recover(); r != nil {
			ssdlc.LogSystemEvent(logger, ssdlc.Crash, fmt.Sprintf("%v", r))
			code = executor.ExitFailure
			return
		}
		ssdlc.LogSystemEvent(logger, ssdlc.Shutdown, "")
	}()

	logger.Infof("Logs of this execution can be found at %s", logResult.LogPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := cli.Dependencies{
		Logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	if parsed != nil && parsed.Subcommand == "help" {
		return cli.Run(ctx, args, deps)
	}

	catalog, err := openstack.LoadDefault()
	if err != nil {
		logger.Warningf("%s", err)
		return executor.ExitFailure
	}

	ctl := executor.NewCancelController()
	installSignalHandler(ctl, cancel)

	controller, closeController, err := connect(ctx, cfg)
	if err != nil {
		logger.Warningf("%s", err)
		return executor.ExitFailure
	}
	defer closeController() //nolint:errcheck

	deps.Controller = controller
	deps.Catalog = catalog
	deps.Timeouts = cfg.Timeouts
	deps.BackupDir = cfg.DataDir
	deps.Prompter = cli.NewTerminalPrompter(os.Stdout, os.Stdin)
	deps.Ctl = ctl

	return cli.Run(ctx, args, deps)
}

// connect dials the controller named by the JUJU_CONTROLLER_ADDRESSES /
// JUJU_MODEL_UUID / JUJU_USERNAME / JUJU_PASSWORD environment variables.
// Locating these from a Juju client's controllers.yaml/accounts.yaml
// store (what the real `juju` CLI does) is out of this tool's scope: the
// external interfaces spec.md §6 documents are JUJU_MODEL/MODEL_NAME
// (resolved into internal/config.Config.ModelName) plus COU_*, not a full
// client store reader, so these four are this entrypoint's own minimal
// substitute — documented in DESIGN.md.
func connect(ctx context.Context, cfg config.Config) (juju.Controller, func() error, error) {
	addrs := os.Getenv("JUJU_CONTROLLER_ADDRESSES")
	modelUUID := os.Getenv("JUJU_MODEL_UUID")
	if addrs == "" || modelUUID == "" {
		return nil, nil, fmt.Errorf("JUJU_CONTROLLER_ADDRESSES and JUJU_MODEL_UUID must be set to connect to a controller")
	}

	caller, closeFn, err := juju.Connect(ctx, juju.DialOptions{
		Addrs:    strings.Split(addrs, ",")[0],
		ModelTag: modelUUID,
		Username: os.Getenv("JUJU_USERNAME"),
		Password: os.Getenv("JUJU_PASSWORD"),
	})
	if err != nil {
		return nil, nil, err
	}
	return juju.NewFacadeController(caller, nil), closeFn, nil
}

// installSignalHandler ports __main__.py's signal handling: the first
// SIGINT/SIGTERM requests a safe cancel (let the in-flight step finish,
// cancel everything not yet started); a second cancels ctx directly,
// which internal/executor treats as an immediate abort.
func installSignalHandler(ctl *executor.CancelController, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigCh {
			if !ctl.Triggered() {
				ctl.RequestSafeCancel()
				continue
			}
			cancel()
			return
		}
	}()
}
