package planner

import (
	"context"
	"fmt"

	"github.com/canonical/cou/internal/analysis"
	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/backup"
	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/openstack"
	"github.com/canonical/cou/internal/step"
)

// Options controls plan assembly: the scope of this run (whole cloud,
// control-plane only, or data-plane only with further targeting) and the
// per-application knobs forwarded to application.GenerateUpgradePlan /
// the hypervisor planner.
type Options struct {
	Force      bool
	NoBackup   bool
	BackupDir  string
	Timeouts   application.Timeouts
	Hypervisor HypervisorOptions

	// SkipControlPlane / SkipDataPlane implement the plan/run subcommands'
	// "control-plane" / "data-plane" child scopes: when set, that half of
	// the cloud is left out of the assembled tree entirely.
	SkipControlPlane bool
	SkipDataPlane    bool
}

// Result is everything GeneratePlan produces: the runnable tree plus the
// advisory messages collected for applications the assembler had to drop
// (HaltUpgradePlanGeneration cases), surfaced to the operator rather than
// silently discarded.
type Result struct {
	Tree       *step.Step
	Target     openstack.Release
	Advisories []string
}

// GeneratePlan implements the Plan Assembler (spec.md §4.5): verify
// idle, optionally back up the database, then upgrade the control-plane
// principal group, control-plane subordinate group, and the data-plane
// hypervisor group in that order.
//
// Per application, a HaltUpgradePlanGeneration error is logged as an
// advisory and that application is dropped from the plan; any other
// error aborts plan generation entirely, since it signals an invariant
// the assembler cannot reason past (a mismatched-version application, an
// OVN version gate, ...).
func GeneratePlan(ctx context.Context, ctrl juju.Controller, a *analysis.Analysis, cat *openstack.Catalog, opts Options) (*Result, error) {
	controlPlane, dataPlane := analysis.SplitApps(a.Apps, cat)

	minRelease, found := analysis.MinOSReleaseApps(controlPlane)
	series, err := analysis.CurrentCloudSeries(a.Apps)
	if err != nil {
		return nil, err
	}
	target, err := DetermineUpgradeTarget(minRelease, found, series)
	if err != nil {
		return nil, err
	}

	root := step.New(fmt.Sprintf("Upgrade cloud to %q", target.String()), step.CategoryUpgradePlan)
	var advisories []string

	root.AddChild(step.NewLeaf("Verify the model is idle", step.CategoryPreUpgrade, func(ctx context.Context) error {
		return ctrl.WaitForActiveIdle(ctx, juju.WaitForActiveIdleParams{Timeout: opts.Timeouts.Standard})
	}))

	if !opts.NoBackup {
		rawApps := make(map[string]juju.Application, len(a.Apps))
		for _, app := range a.Apps {
			rawApps[app.Name] = juju.Application{Name: app.Name, Charm: app.Charm, Units: app.Units}
		}
		backupStep, err := backup.Step(ctrl, rawApps, opts.BackupDir)
		if err != nil {
			return nil, err
		}
		root.AddChild(backupStep)
	}

	if !opts.SkipControlPlane {
		principals, subordinates := splitPrincipalsSubordinates(controlPlane)

		principalGroup, principalAdvisories, err := buildApplicationGroup(ctx, ctrl, principals, target, opts, a.ModelName)
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, principalAdvisories...)
		if len(principalGroup.Children()) > 0 {
			root.AddChild(principalGroup)
		}

		subordinateGroup, subordinateAdvisories, err := buildApplicationGroup(ctx, ctrl, subordinates, target, opts, a.ModelName)
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, subordinateAdvisories...)
		if len(subordinateGroup.Children()) > 0 {
			root.AddChild(subordinateGroup)
		}
	}

	if !opts.SkipDataPlane {
		var nonHypervisor []*application.Application
		for _, app := range dataPlane {
			if app.Kind != application.KindNovaCompute {
				nonHypervisor = append(nonHypervisor, app)
				continue
			}
			hvTree, err := BuildHypervisorPlan(ctx, ctrl, app, app.Machines, nil, opts.Hypervisor)
			if err != nil {
				if couerrors.IsHalt(err) {
					advisories = append(advisories, fmt.Sprintf("%s: %s", app.Name, err.Error()))
					continue
				}
				return nil, err
			}
			root.AddChild(hvTree)
		}

		// Co-located data-plane applications that aren't nova-compute
		// itself (e.g. a ceph-osd not grouped as a nova subordinate) use
		// the same flat per-application plan as the control plane.
		dataPlaneGroup, dataPlaneAdvisories, err := buildApplicationGroup(ctx, ctrl, nonHypervisor, target, opts, a.ModelName)
		if err != nil {
			return nil, err
		}
		advisories = append(advisories, dataPlaneAdvisories...)
		if len(dataPlaneGroup.Children()) > 0 {
			root.AddChild(dataPlaneGroup)
		}
	}

	return &Result{Tree: root, Target: target, Advisories: advisories}, nil
}

// splitPrincipalsSubordinates partitions a control-plane application list
// into its IsSubordinateFamily and non-subordinate members, preserving
// relative order (already sorted by catalog upgrade order).
func splitPrincipalsSubordinates(apps []*application.Application) (principals, subordinates []*application.Application) {
	for _, app := range apps {
		if app.Kind.IsSubordinateFamily() {
			subordinates = append(subordinates, app)
		} else {
			principals = append(principals, app)
		}
	}
	return principals, subordinates
}

// buildApplicationGroup runs GenerateUpgradePlan over apps in order,
// dropping any application that halts plan generation (logging an
// advisory for it) and aborting the whole assembly on any other error.
func buildApplicationGroup(ctx context.Context, ctrl juju.Controller, apps []*application.Application, target openstack.Release, opts Options, modelName string) (*step.Step, []string, error) {
	group := step.New("Upgrade applications", step.CategoryUpgradePlan)
	var advisories []string

	for _, app := range apps {
		planOpts := application.PlanOptions{Force: opts.Force, Timeouts: opts.Timeouts, ModelName: modelName}
		tree, err := application.GenerateUpgradePlan(ctx, ctrl, app, target, planOpts)
		if err != nil {
			if couerrors.IsHalt(err) {
				advisories = append(advisories, fmt.Sprintf("%s: %s", app.Name, err.Error()))
				continue
			}
			return nil, nil, err
		}
		group.AddChild(tree)
	}

	return group, advisories, nil
}
