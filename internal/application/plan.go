package application

import (
	"context"
	"fmt"
	"time"

	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/openstack"
	"github.com/canonical/cou/internal/step"
)

// Timeouts bundles the two idle-wait durations read from the environment
// (COU_STANDARD_IDLE_TIMEOUT / COU_LONG_IDLE_TIMEOUT).
type Timeouts struct {
	Standard time.Duration
	Long     time.Duration
}

// PlanOptions controls how GenerateUpgradePlan builds the per-application
// tree.
type PlanOptions struct {
	Force bool
	// ExplicitUnits, when set, both skips the mismatched-versions check
	// and requests unit-by-unit upgrade: action-managed-upgrade is
	// enabled and the per-unit pause/upgrade/resume container is emitted.
	ExplicitUnits []string
	Timeouts      Timeouts
	// ModelName is interpolated, quoted, into the model-wide idle-wait
	// step's description; an empty name renders as "".
	ModelName string
}

// GenerateUpgradePlan builds the ApplicationUpgradePlan for a, or returns
// a HaltUpgradePlanGeneration error (not a failure — see
// couerrors.IsHalt) when there is nothing to do, or an ApplicationError /
// MismatchedOpenStackVersionsError on an invariant violation.
//
// NovaCompute is handled separately by the Hypervisor Upgrade Planner
// (internal/planner): its per-unit steps are grouped by availability zone
// and machine rather than flattened under one application container, so
// this function rejects it.
func GenerateUpgradePlan(ctx context.Context, ctrl juju.Controller, a *Application, target openstack.Release, opts PlanOptions) (*step.Step, error) {
	if a.Kind == KindNovaCompute {
		return nil, couerrors.NewApplicationError(a.Name, "nova-compute applications are planned by the hypervisor upgrade planner, not GenerateUpgradePlan")
	}

	if (a.Kind == KindOvnPrincipal || a.Kind == KindOvnSubordinate) && ctrl != nil {
		if err := a.checkOVNVersions(); err != nil {
			return nil, err
		}
	}
	if err := a.checkApplicationTarget(target); err != nil {
		return nil, err
	}
	if err := a.checkMismatchedVersions(opts.ExplicitUnits); err != nil {
		return nil, err
	}
	if err := a.checkAutoRestarts(); err != nil {
		return nil, err
	}

	root := step.New(fmt.Sprintf("Upgrade plan for %q to %q", a.Name, target.String()), step.CategoryApplicationUpgradePlan)

	pre, err := a.preUpgradeSteps(ctx, ctrl, target)
	if err != nil {
		return nil, err
	}
	for _, s := range pre {
		root.AddChild(s)
	}

	up, err := a.upgradeSteps(ctx, ctrl, target, opts)
	if err != nil {
		return nil, err
	}
	for _, s := range up {
		root.AddChild(s)
	}

	if a.Kind.HasPostUpgradeSteps() {
		post := a.postUpgradeSteps(ctx, ctrl, target, opts)
		for _, s := range post {
			root.AddChild(s)
		}
	}

	return root, nil
}

// preUpgradeSteps builds steps 1-2 of §4.3: package upgrade then charm
// refresh.
func (a *Application) preUpgradeSteps(ctx context.Context, ctrl juju.Controller, target openstack.Release) ([]*step.Step, error) {
	var steps []*step.Step

	if a.Kind.HasPackageUpgradeStep() {
		steps = append(steps, a.packageUpgradeStep(ctrl))
	}

	if a.Kind == KindCephMon {
		s, err := a.ensureRequireOSDRelease(ctrl, false)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}

	refresh, err := a.refreshCharmStep(ctrl, target)
	if err != nil {
		return nil, err
	}
	steps = append(steps, refresh)

	return steps, nil
}

func (a *Application) packageUpgradeStep(ctrl juju.Controller) *step.Step {
	container := step.New(fmt.Sprintf("Upgrade software packages of %q from the current APT repositories", a.Name), step.CategoryPreUpgrade)
	container.Parallel = true
	hold := a.PackagesToHold()
	for _, unitName := range a.SortedUnitNames() {
		unitName := unitName
		container.AddChild(step.NewLeaf(
			fmt.Sprintf("Upgrade packages on unit %q", unitName),
			step.CategoryUnit,
			func(ctx context.Context) error {
				return upgradePackages(ctx, ctrl, unitName, hold)
			},
		))
	}
	return container
}

// upgradePackages ports utils/app_utils.py::upgrade_packages.
func upgradePackages(ctx context.Context, ctrl juju.Controller, unit string, hold []string) error {
	dpkgOpts := "-o Dpkg::Options::=--force-confnew -o Dpkg::Options::=--force-confdef"
	command := fmt.Sprintf("apt-get update && apt-get dist-upgrade %s -y && apt-get autoremove -y", dpkgOpts)
	if len(hold) > 0 {
		packages := joinSpace(hold)
		command = fmt.Sprintf("apt-mark hold %s && %s ; apt-mark unhold %s", packages, command, packages)
	}
	_, err := ctrl.RunOnUnit(ctx, unit, command, 600*time.Second)
	return err
}

func joinSpace(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

// refreshCharmStep implements the three-way refresh decision in §4.3
// item 2: charmstore migration, refresh-in-place, or no-op/error.
func (a *Application) refreshCharmStep(ctrl juju.Controller, target openstack.Release) (*step.Step, error) {
	targetChannel := a.targetChannel(target)

	if a.Origin == "cs" {
		return step.NewLeaf(
			fmt.Sprintf("Migrate %q from charmstore to channel %q", a.Name, targetChannel),
			step.CategoryPreUpgrade,
			func(ctx context.Context) error {
				return ctrl.UpgradeCharm(ctx, a.Name, juju.UpgradeCharmParams{Switch: a.Name, Channel: targetChannel})
			},
		), nil
	}

	current := a.ChannelTrack()
	possible, err := a.possibleCurrentChannelTracks()
	if err != nil {
		return nil, err
	}
	for _, track := range possible {
		if track == current {
			return step.NewLeaf(
				fmt.Sprintf("Refresh %q to the latest revision of %q", a.Name, a.Channel),
				step.CategoryPreUpgrade,
				func(ctx context.Context) error {
					return ctrl.UpgradeCharm(ctx, a.Name, juju.UpgradeCharmParams{Channel: a.Channel})
				},
			), nil
		}
	}

	// Already tracking a channel at or beyond target: nothing to refresh.
	channelRelease, err := a.ChannelCodename()
	if err == nil && channelRelease.AtLeast(target) {
		return step.New(fmt.Sprintf("Charm %q already tracks channel %q", a.Name, a.Channel), step.CategoryPreUpgrade), nil
	}

	return nil, couerrors.NewApplicationError(a.Name, "channel %q is neither a current channel nor at/above target %q", a.Channel, target.String())
}

// possibleCurrentChannelTracks returns the tracks considered "current" for
// a refresh-in-place, per variant.
func (a *Application) possibleCurrentChannelTracks() ([]string, error) {
	if a.Kind.IsPrincipalLike() || a.Kind == KindSubordinate {
		current, err := a.CurrentOSRelease()
		if err != nil {
			return nil, err
		}
		return []string{current.String()}, nil
	}
	// Auxiliary-family: any track that maps to the application's current
	// channel codename is a valid "current" track.
	current, err := a.ChannelCodename()
	if err != nil {
		return nil, err
	}
	track, ok := a.catalog.CodenameToTrack(a.Charm, current.String())
	if !ok {
		return nil, couerrors.NewInvalidChannel(a.Name, a.Channel)
	}
	return []string{track}, nil
}

// targetChannel computes the channel to cross-grade into for target, per
// variant: "<codename>/stable" for principal/subordinate charms, the
// auxiliary track lookup otherwise.
func (a *Application) targetChannel(target openstack.Release) string {
	if a.Kind.IsPrincipalLike() || a.Kind == KindSubordinate {
		return target.String() + "/stable"
	}
	track, ok := a.catalog.CodenameToTrack(a.Charm, target.String())
	if !ok {
		return a.Channel
	}
	return track + "/stable"
}

// upgradeSteps builds steps 3-6 of §4.3.
func (a *Application) upgradeSteps(ctx context.Context, ctrl juju.Controller, target openstack.Release, opts PlanOptions) ([]*step.Step, error) {
	var steps []*step.Step

	unitByUnit := len(opts.ExplicitUnits) > 0

	actionManagedUpgrade, actionManagedUpgradeLabel := "false", "False"
	if unitByUnit {
		actionManagedUpgrade, actionManagedUpgradeLabel = "true", "True"
	}
	steps = append(steps, step.NewLeaf(
		fmt.Sprintf("Set action-managed-upgrade to %s on %q", actionManagedUpgradeLabel, a.Name),
		step.CategoryUpgrade,
		func(ctx context.Context) error {
			return ctrl.SetApplicationConfig(ctx, a.Name, map[string]string{"action-managed-upgrade": actionManagedUpgrade})
		},
	))

	targetChannel := a.targetChannel(target)
	if targetChannel != a.Channel {
		steps = append(steps, step.NewLeaf(
			fmt.Sprintf("Upgrade %q to channel %q", a.Name, targetChannel),
			step.CategoryUpgrade,
			func(ctx context.Context) error {
				return ctrl.UpgradeCharm(ctx, a.Name, juju.UpgradeCharmParams{Channel: targetChannel})
			},
		))
	}

	if originSetting := a.OriginSetting(); originSetting != "" {
		if origin, ok := a.OSOrigin(); ok {
			newOrigin := fmt.Sprintf("cloud:%s-%s", a.Series, target.String())
			if origin != newOrigin {
				steps = append(steps, step.NewLeaf(
					fmt.Sprintf("Change %s of %q to %q", originSetting, a.Name, newOrigin),
					step.CategoryUpgrade,
					func(ctx context.Context) error {
						return ctrl.SetApplicationConfig(ctx, a.Name, map[string]string{originSetting: newOrigin})
					},
				))
			}
		}
	}

	if unitByUnit && a.Kind != KindSubordinate && a.Kind != KindOvnSubordinate {
		steps = append(steps, a.perUnitUpgradeContainer(ctrl))
	}

	if a.Kind == KindCephMon {
		s, err := a.ensureRequireOSDRelease(ctrl, true)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}

	return steps, nil
}

// SubordinateUnitUpgradeStep builds the pause/upgrade/resume triple for one
// unit of a subordinate application co-located with a nova-compute unit
// being upgraded by the Hypervisor Upgrade Planner. It mirrors
// perUnitUpgradeContainer's inner unit subtree without the disable/enable
// bracket nova-compute itself needs.
func SubordinateUnitUpgradeStep(ctrl juju.Controller, unitName string) *step.Step {
	unit := step.New(fmt.Sprintf("Upgrade unit %q", unitName), step.CategoryUnit)
	unit.AddChild(step.NewLeaf(fmt.Sprintf("Pause unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
		_, err := ctrl.RunAction(ctx, unitName, "pause", nil, true)
		return err
	}))
	unit.AddChild(step.NewLeaf(fmt.Sprintf("Run openstack-upgrade on unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
		_, err := ctrl.RunAction(ctx, unitName, "openstack-upgrade", nil, true)
		return err
	}))
	unit.AddChild(step.NewLeaf(fmt.Sprintf("Resume unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
		_, err := ctrl.RunAction(ctx, unitName, "resume", nil, true)
		return err
	}))
	return unit
}

func (a *Application) perUnitUpgradeContainer(ctrl juju.Controller) *step.Step {
	container := step.New(fmt.Sprintf("Upgrade the charm payload of %q, one unit at a time", a.Name), step.CategoryUpgrade)
	container.Parallel = true
	for _, unitName := range a.SortedUnitNames() {
		unitName := unitName
		unit := step.New(fmt.Sprintf("Upgrade unit %q", unitName), step.CategoryUnit)
		unit.AddChild(step.NewLeaf(fmt.Sprintf("Pause unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
			_, err := ctrl.RunAction(ctx, unitName, "pause", nil, true)
			return err
		}))
		unit.AddChild(step.NewLeaf(fmt.Sprintf("Run openstack-upgrade on unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
			_, err := ctrl.RunAction(ctx, unitName, "openstack-upgrade", nil, true)
			return err
		}))
		unit.AddChild(step.NewLeaf(fmt.Sprintf("Resume unit %q", unitName), step.CategoryUnit, func(ctx context.Context) error {
			_, err := ctrl.RunAction(ctx, unitName, "resume", nil, true)
			return err
		}))
		container.AddChild(unit)
	}
	return container
}

// postUpgradeSteps builds steps 7-8 of §4.3.
func (a *Application) postUpgradeSteps(ctx context.Context, ctrl juju.Controller, target openstack.Release, opts PlanOptions) []*step.Step {
	if a.IsVersionless() && a.Kind == KindChannelBased {
		return nil
	}

	timeout := a.WaitTimeout(opts.Timeouts.Standard, opts.Timeouts.Long)
	waitForModel := a.WaitForModel()

	var waitDescription string
	var waitApps []string
	if waitForModel {
		waitDescription = fmt.Sprintf("Wait for up to %.0fs for model %q to reach the idle state", timeout.Seconds(), opts.ModelName)
		waitApps = nil
	} else {
		waitDescription = fmt.Sprintf("Wait for up to %.0fs for app %q to reach the idle state", timeout.Seconds(), a.Name)
		waitApps = []string{a.Name}
	}

	waitStep := step.NewLeaf(waitDescription, step.CategoryPostUpgrade, func(ctx context.Context) error {
		return ctrl.WaitForActiveIdle(ctx, juju.WaitForActiveIdleParams{
			Timeout:        timeout,
			Applications:   waitApps,
			RaiseOnBlocked: true,
			IdlePeriod:     30 * time.Second,
		})
	})

	verifyStep := step.NewLeaf(
		fmt.Sprintf("Verify that the workload of %q has been upgraded to %q", a.Name, target.String()),
		step.CategoryPostUpgrade,
		func(ctx context.Context) error {
			return a.verifyWorkloadUpgraded(target)
		},
	)

	return []*step.Step{waitStep, verifyStep}
}

// verifyWorkloadUpgraded re-reads OSReleaseUnits and asserts every unit
// has reached target. Channel-anchored variants have no meaningful
// per-unit workload version, so they verify against the channel codename
// instead.
func (a *Application) verifyWorkloadUpgraded(target openstack.Release) error {
	if !a.Kind.DerivesFromWorkloadVersion() {
		current, err := a.ChannelCodename()
		if err != nil {
			return err
		}
		if current.Before(target) {
			return couerrors.NewApplicationError(a.Name, "channel codename %q has not reached %q", current.String(), target.String())
		}
		return nil
	}

	releases, err := a.OSReleaseUnits()
	if err != nil {
		return err
	}
	var notUpgraded []string
	for unit, r := range releases {
		if r.Before(target) {
			notUpgraded = append(notUpgraded, unit)
		}
	}
	if len(notUpgraded) > 0 {
		return couerrors.NewApplicationError(a.Name, "units not upgraded to %q: %v", target.String(), notUpgraded)
	}
	return nil
}

