package application

import (
	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/openstack"
)

// minimumOVNVersion is the lowest OVN workload version this tool will
// upgrade past; older chassis/central units must be upgraded out of band
// first.
var minimumOVNVersion = openstack.Version{Major: 22, Minor: 3, Patch: 0}

const ovnRemediationURL = "https://docs.openstack.org/charm-guide/latest/admin/upgrades/openstack.html#ovn"

// checkOVNVersions asserts every unit's workload version is at least
// minimumOVNVersion, per §4.3's OvnPrincipal / OvnSubordinate delta.
func (a *Application) checkOVNVersions() error {
	for _, unitName := range a.SortedUnitNames() {
		u := a.Units[unitName]
		v := openstack.ParseVersion(u.WorkloadVersion)
		if v.Compare(minimumOVNVersion) < 0 {
			return couerrors.NewApplicationError(
				a.Name,
				"unit %q runs OVN %q; OVN versions lower than 22.03 are not supported, see %s",
				unitName, u.WorkloadVersion, ovnRemediationURL,
			)
		}
	}
	return nil
}
