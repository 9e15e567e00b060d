package juju

import (
	"context"
	"time"
)

// Controller is the narrow interface the plan assembler and executor
// depend on. It intentionally excludes connection management: a
// Controller value is already connected to a model when it reaches this
// package's callers.
type Controller interface {
	// GetStatus returns a full snapshot of the model.
	GetStatus(ctx context.Context) (ClusterStatus, error)

	// GetCharmName returns the charm name backing app (e.g. "keystone"
	// for an application named "keystone-east").
	GetCharmName(ctx context.Context, app string) (string, error)

	// GetApplicationConfig returns the charm config for app.
	GetApplicationConfig(ctx context.Context, app string) (map[string]ConfigValue, error)

	// SetApplicationConfig merges values into app's charm config.
	SetApplicationConfig(ctx context.Context, app string, values map[string]string) error

	// UpgradeCharm refreshes app's charm per params.
	UpgradeCharm(ctx context.Context, app string, params UpgradeCharmParams) error

	// RunOnUnit runs command on unit, waiting up to timeout.
	RunOnUnit(ctx context.Context, unit, command string, timeout time.Duration) (CommandResult, error)

	// RunAction runs a predefined action on unit.
	RunAction(ctx context.Context, unit, action string, params map[string]string, raiseOnFailure bool) (ActionResult, error)

	// WaitForActiveIdle blocks until the targeted scope reaches idle.
	WaitForActiveIdle(ctx context.Context, params WaitForActiveIdleParams) error

	// ScpFromUnit copies remote (a path on unit) to local (a path on the
	// machine running this process). Used only by the backup subsystem.
	ScpFromUnit(ctx context.Context, unit, remote, local string) error
}
