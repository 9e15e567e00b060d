package application_test

import (
	"context"
	"time"

	"github.com/canonical/cou/internal/juju"
)

// fakeController is a hand-rolled juju.Controller recording every
// RunAction/RunOnUnit/UpgradeCharm/SetApplicationConfig call, with
// scripted action results keyed by "unit/action". Kept deliberately
// simple: the plan-generation tests in this package only need to assert
// which calls happened and in what order, not full facade semantics
// (that's internal/juju's job).
type fakeController struct {
	actionResults map[string]juju.ActionResult
	actionErrors  map[string]error

	actionCalls []string
	runCalls    []string
	upgradeCalls []string
	configCalls []string
}

func newFakeController() *fakeController {
	return &fakeController{
		actionResults: map[string]juju.ActionResult{},
		actionErrors:  map[string]error{},
	}
}

func (f *fakeController) GetStatus(ctx context.Context) (juju.ClusterStatus, error) {
	return juju.ClusterStatus{}, nil
}

func (f *fakeController) GetCharmName(ctx context.Context, app string) (string, error) {
	return app, nil
}

func (f *fakeController) GetApplicationConfig(ctx context.Context, app string) (map[string]juju.ConfigValue, error) {
	return nil, nil
}

func (f *fakeController) SetApplicationConfig(ctx context.Context, app string, values map[string]string) error {
	f.configCalls = append(f.configCalls, app)
	return nil
}

func (f *fakeController) UpgradeCharm(ctx context.Context, app string, params juju.UpgradeCharmParams) error {
	f.upgradeCalls = append(f.upgradeCalls, app)
	return nil
}

func (f *fakeController) RunOnUnit(ctx context.Context, unit, command string, timeout time.Duration) (juju.CommandResult, error) {
	f.runCalls = append(f.runCalls, unit)
	return juju.CommandResult{}, nil
}

func (f *fakeController) RunAction(ctx context.Context, unit, action string, params map[string]string, raiseOnFailure bool) (juju.ActionResult, error) {
	key := unit + "/" + action
	f.actionCalls = append(f.actionCalls, key)
	if err, ok := f.actionErrors[key]; ok {
		return juju.ActionResult{}, err
	}
	return f.actionResults[key], nil
}

func (f *fakeController) WaitForActiveIdle(ctx context.Context, params juju.WaitForActiveIdleParams) error {
	return nil
}

func (f *fakeController) ScpFromUnit(ctx context.Context, unit, remote, local string) error {
	return nil
}
