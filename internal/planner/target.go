// Package planner implements the Plan Assembler (spec.md §4.5) and
// the Hypervisor Upgrade Planner (§4.6): given an Analysis, it computes the
// upgrade target release and assembles the full step tree the executor
// runs, including the AZ/machine-grouped data-plane subtree that
// GenerateUpgradePlan itself refuses to build for nova-compute.
package planner

import (
	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/openstack"
)

// DetermineUpgradeTarget implements determine_upgrade_target: the single
// release this run upgrades the cloud to, one step at a time.
func DetermineUpgradeTarget(minRelease openstack.Release, found bool, series openstack.Series) (openstack.Release, error) {
	if !found {
		return openstack.Release{}, couerrors.NewNoTarget("no current OpenStack release could be determined")
	}

	lowest, highest, err := openstack.SupportedRange(series.String())
	if err != nil {
		return openstack.Release{}, couerrors.NewOutOfSupportRange(minRelease.String(), series.String())
	}
	if minRelease.Before(lowest) || minRelease.After(highest) {
		return openstack.Release{}, couerrors.NewOutOfSupportRange(minRelease.String(), series.String())
	}

	next, ok := minRelease.Next()
	if !ok {
		return openstack.Release{}, couerrors.NewHighestReleaseAchieved(minRelease.String())
	}
	return next, nil
}
