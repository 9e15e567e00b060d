package planner_test

import (
	"strings"

	"github.com/canonical/cou/internal/openstack"
)

// testCatalog builds a small in-memory release catalog covering exactly
// the charms these tests exercise, in the same CSV shape as
// internal/openstack/data/release-table.csv.
func testCatalog() *openstack.Catalog {
	csv := `kind,charm,workload,series,codename,track,lo,hi,ord,set
codename_range,keystone,keystone,,ussuri,,17.0.0,18.0.0,,
codename_range,keystone,keystone,,victoria,,18.0.0,19.0.0,,
codename_range,nova-compute,nova-common,,ussuri,,21.0.0,22.0.0,,
codename_range,nova-compute,nova-common,,victoria,,22.0.0,23.0.0,,
set_member,keystone,,,,,,,,upgrade_order
order,keystone,,,,,,,10,
set_member,nova-compute,,,,,,,,upgrade_order
order,nova-compute,,,,,,,100,
set_member,nova-compute,,,,,,,,data_plane
set_member,keystone-ldap,,,,,,,,subordinate
aux_track,keystone-ldap,,,victoria,victoria,,,,
codename_range,mysql-innodb-cluster,mysql-innodb-cluster,,ussuri,,8.0.18,8.0.19,,
aux_track,mysql-innodb-cluster,,,ussuri,8.0,,,,
aux_track,mysql-innodb-cluster,,,victoria,8.0,,,,
`
	cat, err := openstack.Load(strings.NewReader(csv))
	if err != nil {
		panic(err)
	}
	return cat
}
