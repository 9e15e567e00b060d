package application

import (
	"context"
	"fmt"

	"github.com/juju/collections/set"

	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/step"
)

// supportedCephReleases lists the Ceph releases this tool knows how to
// reason about, listed in the RunUpgradeError message when the catalog
// maps the OpenStack release to no known Ceph release.
var supportedCephReleases = []string{"octopus", "pacific", "quincy"}

// ensureRequireOSDRelease builds the pre-upgrade ("ensure require-osd-
// release is set to the current Ceph release") or post-upgrade ("... set
// to the target Ceph release") step for a ceph-mon application, per
// §4.3's Ceph policy details.
func (a *Application) ensureRequireOSDRelease(ctrl juju.Controller, postUpgrade bool) (*step.Step, error) {
	current, err := a.CurrentOSRelease()
	if err != nil {
		return nil, err
	}
	osCodename := current.String()
	if postUpgrade {
		next, ok := current.Next()
		if ok {
			osCodename = next.String()
		}
	}
	cephRelease, ok := a.catalog.OpenStackToCephRelease(a.Charm, osCodename)
	if !ok {
		return nil, couerrors.NewRunUpgradeError(
			"no known Ceph release for OpenStack release %q on %q; supported Ceph releases: %v",
			osCodename, a.Name, supportedCephReleases,
		)
	}

	verb := "Ensure require-osd-release on ceph-mon units correctly set to"
	category := step.CategoryPreUpgrade
	if postUpgrade {
		category = step.CategoryPostUpgrade
	}

	return step.NewLeaf(
		fmt.Sprintf("%s %q", verb, cephRelease),
		category,
		func(ctx context.Context) error {
			return a.reconcileRequireOSDRelease(ctx, ctrl, cephRelease)
		},
	), nil
}

// reconcileRequireOSDRelease queries OSD versions across the ceph-mon
// units and sets require-osd-release if it doesn't already match,
// aborting if OSDs disagree on version.
func (a *Application) reconcileRequireOSDRelease(ctx context.Context, ctrl juju.Controller, targetCephRelease string) error {
	osdVersions := set.NewStrings()
	for _, unitName := range a.SortedUnitNames() {
		result, err := ctrl.RunAction(ctx, unitName, "ceph-versions", nil, true)
		if err != nil {
			return err
		}
		if v, ok := result.Results["osd"]; ok {
			osdVersions.Add(v)
		}
	}
	if osdVersions.Size() > 1 {
		return couerrors.NewApplicationError(a.Name, "OSDs report mismatched Ceph versions: %v", osdVersions.SortedValues())
	}

	unitName := a.SortedUnitNames()[0]
	dump, err := ctrl.RunAction(ctx, unitName, "ceph-osd-dump", nil, true)
	if err != nil {
		return err
	}
	if dump.Results["require-osd-release"] == targetCephRelease {
		return nil
	}
	_, err = ctrl.RunAction(ctx, unitName, "set-require-osd-release", map[string]string{
		"release": targetCephRelease,
	}, true)
	return err
}
