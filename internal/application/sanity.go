package application

import (
	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/openstack"
)

// checkApplicationTarget implements _check_application_target: an
// application with nothing left to do for target raises
// HaltUpgradePlanGeneration rather than an error.
func (a *Application) checkApplicationTarget(target openstack.Release) error {
	current, err := a.CurrentOSRelease()
	if err != nil {
		return err
	}
	if current.Before(target) {
		return nil
	}
	if a.CanUpgradeTo != "" {
		return nil
	}
	if a.Kind.IsSubordinateFamily() {
		return couerrors.NewHaltUpgradePlanGeneration(a.Name, "already at or above target and no refresh pending")
	}
	aptCodename, err := a.AptSourceCodename()
	if err != nil {
		// Can't resolve the apt source; be conservative and let the
		// upgrade proceed rather than silently halting.
		return nil
	}
	if aptCodename.AtLeast(target) {
		return couerrors.NewHaltUpgradePlanGeneration(a.Name, "already at or above target and no refresh pending")
	}
	return nil
}

// checkMismatchedVersions implements _check_mismatched_versions: when no
// explicit unit subset is given and units disagree on release, abort with
// MismatchedOpenStackVersions.
func (a *Application) checkMismatchedVersions(explicitUnits []string) error {
	if len(explicitUnits) > 0 {
		return nil
	}
	if !a.Kind.DerivesFromWorkloadVersion() {
		// Channel-anchored variants have one release for the whole
		// application, not one per unit; there is nothing to mismatch.
		return nil
	}
	releases, err := a.OSReleaseUnits()
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, r := range releases {
		seen[r.String()] = true
	}
	if len(seen) > 1 {
		versions := make(map[string]string, len(releases))
		for unit, r := range releases {
			versions[unit] = r.String()
		}
		return couerrors.NewMismatchedOpenStackVersions(a.Name, versions)
	}
	return nil
}

// checkAutoRestarts implements _check_auto_restarts.
func (a *Application) checkAutoRestarts() error {
	if a.autoRestartsDisabled() {
		return couerrors.NewApplicationError(a.Name, "enable-auto-restarts is set to false")
	}
	return nil
}
