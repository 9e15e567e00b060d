package planner_test

import (
	"context"
	"time"

	"github.com/canonical/cou/internal/juju"
)

// fakeController mirrors internal/application's test double: records
// every action/run call and returns scripted results, nothing more.
type fakeController struct {
	status juju.ClusterStatus

	actionResults map[string]juju.ActionResult
	actionErrors  map[string]error

	actionCalls []string
	runCalls    []string
	idleCalls   int
	scpCalls    []string
}

func newFakeController() *fakeController {
	return &fakeController{
		actionResults: map[string]juju.ActionResult{},
		actionErrors:  map[string]error{},
	}
}

func (f *fakeController) GetStatus(ctx context.Context) (juju.ClusterStatus, error) {
	return f.status, nil
}

func (f *fakeController) GetCharmName(ctx context.Context, app string) (string, error) {
	return app, nil
}

func (f *fakeController) GetApplicationConfig(ctx context.Context, app string) (map[string]juju.ConfigValue, error) {
	return nil, nil
}

func (f *fakeController) SetApplicationConfig(ctx context.Context, app string, values map[string]string) error {
	return nil
}

func (f *fakeController) UpgradeCharm(ctx context.Context, app string, params juju.UpgradeCharmParams) error {
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
	f.idleCalls++
	return nil
}

func (f *fakeController) ScpFromUnit(ctx context.Context, unit, remote, local string) error {
	f.scpCalls = append(f.scpCalls, unit+":"+remote+"->"+local)
	return nil
}
