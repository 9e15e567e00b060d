// Package testing provides a record/replay fake of internal/juju.Controller
// for scenario tests that want a named, reusable double instead of the
// small hand-rolled fakes each package's own _test.go files define, per
// spec.md §9's "mock with a record-and-replay table keyed by (op, args)"
// design note.
package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/canonical/cou/internal/juju"
)

// Call is one recorded invocation against a FakeController.
type Call struct {
	Op   string
	Args []any
}

// response is a scripted (result, error) pair keyed by a Call's identity.
type response struct {
	result any
	err    error
}

// FakeController is a Controller implementation driven entirely by
// responses set up in advance: GetStatus, GetCharmName and
// GetApplicationConfig return what the With* methods stored, while
// UpgradeCharm, RunOnUnit, RunAction and WaitForActiveIdle look up a
// response keyed by (operation, arguments) set via the Script* methods.
// Every call is recorded for later assertion via Calls. An unscripted
// call returns the method's zero value and no error, except GetCharmName,
// which returns the application name itself, matching a cluster where
// "nothing happens" unless told otherwise.
type FakeController struct {
	mu sync.Mutex

	status    juju.ClusterStatus
	charmName map[string]string
	appConfig map[string]map[string]juju.ConfigValue

	scripted map[string]response
	calls    []Call
}

// NewFakeController returns an empty FakeController; configure it with the
// With*/Script* methods before use.
func NewFakeController() *FakeController {
	return &FakeController{
		charmName: map[string]string{},
		appConfig: map[string]map[string]juju.ConfigValue{},
		scripted:  map[string]response{},
	}
}

// WithStatus sets the value GetStatus returns.
func (f *FakeController) WithStatus(status juju.ClusterStatus) *FakeController {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	return f
}

// WithCharmName scripts GetCharmName(app) to return charm.
func (f *FakeController) WithCharmName(app, charm string) *FakeController {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.charmName[app] = charm
	return f
}

// WithApplicationConfig scripts GetApplicationConfig(app) to return cfg.
func (f *FakeController) WithApplicationConfig(app string, cfg map[string]juju.ConfigValue) *FakeController {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appConfig[app] = cfg
	return f
}

// ScriptAction scripts RunAction(unit, action, ...) to return result/err.
func (f *FakeController) ScriptAction(unit, action string, result juju.ActionResult, err error) *FakeController {
	return f.script(key("RunAction", unit, action), result, err)
}

// ScriptRunOnUnit scripts RunOnUnit(unit, command, ...) to return result/err.
func (f *FakeController) ScriptRunOnUnit(unit, command string, result juju.CommandResult, err error) *FakeController {
	return f.script(key("RunOnUnit", unit, command), result, err)
}

// ScriptUpgradeCharm scripts UpgradeCharm(app, ...) to return err.
func (f *FakeController) ScriptUpgradeCharm(app string, err error) *FakeController {
	return f.script(key("UpgradeCharm", app), nil, err)
}

// ScriptWaitForActiveIdle scripts every later WaitForActiveIdle call to
// return err regardless of its params.
func (f *FakeController) ScriptWaitForActiveIdle(err error) *FakeController {
	return f.script(key("WaitForActiveIdle"), nil, err)
}

func (f *FakeController) script(k string, result any, err error) *FakeController {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripted[k] = response{result: result, err: err}
	return f
}

func key(op string, args ...any) string {
	return fmt.Sprintf("%s:%v", op, args)
}

func (f *FakeController) record(op string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Args: args})
}

// Calls returns every call recorded so far, in order.
func (f *FakeController) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeController) lookup(k string) (response, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.scripted[k]
	return r, ok
}

func (f *FakeController) GetStatus(ctx context.Context) (juju.ClusterStatus, error) {
	f.record("GetStatus")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *FakeController) GetCharmName(ctx context.Context, app string) (string, error) {
	f.record("GetCharmName", app)
	f.mu.Lock()
	defer f.mu.Unlock()
	if charm, ok := f.charmName[app]; ok {
		return charm, nil
	}
	return app, nil
}

func (f *FakeController) GetApplicationConfig(ctx context.Context, app string) (map[string]juju.ConfigValue, error) {
	f.record("GetApplicationConfig", app)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appConfig[app], nil
}

func (f *FakeController) SetApplicationConfig(ctx context.Context, app string, values map[string]string) error {
	f.record("SetApplicationConfig", app, values)
	return nil
}

func (f *FakeController) UpgradeCharm(ctx context.Context, app string, params juju.UpgradeCharmParams) error {
	f.record("UpgradeCharm", app, params)
	if r, ok := f.lookup(key("UpgradeCharm", app)); ok {
		return r.err
	}
	return nil
}

func (f *FakeController) RunOnUnit(ctx context.Context, unit, command string, timeout time.Duration) (juju.CommandResult, error) {
	f.record("RunOnUnit", unit, command)
	if r, ok := f.lookup(key("RunOnUnit", unit, command)); ok {
		result, _ := r.result.(juju.CommandResult)
		return result, r.err
	}
	return juju.CommandResult{}, nil
}

func (f *FakeController) RunAction(ctx context.Context, unit, action string, params map[string]string, raiseOnFailure bool) (juju.ActionResult, error) {
	f.record("RunAction", unit, action, params)
	if r, ok := f.lookup(key("RunAction", unit, action)); ok {
		result, _ := r.result.(juju.ActionResult)
		return result, r.err
	}
	return juju.ActionResult{}, nil
}

func (f *FakeController) WaitForActiveIdle(ctx context.Context, params juju.WaitForActiveIdleParams) error {
	f.record("WaitForActiveIdle", params)
	if r, ok := f.lookup(key("WaitForActiveIdle")); ok {
		return r.err
	}
	return nil
}

func (f *FakeController) ScpFromUnit(ctx context.Context, unit, remote, local string) error {
	f.record("ScpFromUnit", unit, remote, local)
	return nil
}

var _ juju.Controller = (*FakeController)(nil)
