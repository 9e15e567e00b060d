package application_test

import (
	"time"

	"github.com/juju/tc"

	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/juju"
)

type applicationSuite struct{}

var _ = tc.Suite(&applicationSuite{})

func keystoneRaw() juju.Application {
	return juju.Application{
		Name:    "keystone",
		Charm:   "keystone",
		Channel: "ussuri/stable",
		Origin:  "ch",
		Series:  "focal",
		Config: map[string]juju.ConfigValue{
			"openstack-origin": {Value: "distro", Source: "user"},
		},
		Units: map[string]juju.Unit{
			"keystone/0": {Name: "keystone/0", WorkloadVersion: "17.0.1", MachineID: "0"},
			"keystone/1": {Name: "keystone/1", WorkloadVersion: "17.0.1", MachineID: "1"},
		},
	}
}

func (s *applicationSuite) TestOriginSettingDefault(c *tc.C) {
	a := application.New(keystoneRaw(), testCatalog())
	c.Assert(a.OriginSetting(), tc.Equals, "openstack-origin")
}

func (s *applicationSuite) TestOriginSettingOverride(c *tc.C) {
	raw := keystoneRaw()
	raw.Name, raw.Charm = "ovn-central", "ovn-central"
	a := application.New(raw, testCatalog())
	c.Assert(a.OriginSetting(), tc.Equals, "source")
}

func (s *applicationSuite) TestAptSourceCodenameDistro(c *tc.C) {
	a := application.New(keystoneRaw(), testCatalog())
	r, err := a.AptSourceCodename()
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(r.String(), tc.Equals, "ussuri")
}

func (s *applicationSuite) TestAptSourceCodenameCloudArchive(c *tc.C) {
	raw := keystoneRaw()
	raw.Config["openstack-origin"] = juju.ConfigValue{Value: "cloud:focal-victoria", Source: "user"}
	a := application.New(raw, testCatalog())
	r, err := a.AptSourceCodename()
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(r.String(), tc.Equals, "victoria")
}

func (s *applicationSuite) TestCurrentOSReleasePrincipal(c *tc.C) {
	a := application.New(keystoneRaw(), testCatalog())
	r, err := a.CurrentOSRelease()
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(r.String(), tc.Equals, "ussuri")
}

func (s *applicationSuite) TestOSReleaseUnitsMismatch(c *tc.C) {
	raw := keystoneRaw()
	raw.Units["keystone/1"] = juju.Unit{Name: "keystone/1", WorkloadVersion: "18.0.1", MachineID: "1"}
	a := application.New(raw, testCatalog())
	releases, err := a.OSReleaseUnits()
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(releases["keystone/0"].String(), tc.Equals, "ussuri")
	c.Assert(releases["keystone/1"].String(), tc.Equals, "victoria")
}

func (s *applicationSuite) TestWaitTimeoutAndModel(c *tc.C) {
	a := application.New(keystoneRaw(), testCatalog())
	c.Assert(a.WaitTimeout(10*time.Second, 30*time.Second), tc.Equals, 30*time.Second)
	c.Assert(a.WaitForModel(), tc.Equals, true)
}

func (s *applicationSuite) TestPackagesToHoldMysql(c *tc.C) {
	raw := keystoneRaw()
	raw.Name, raw.Charm = "mysql-innodb-cluster", "mysql-innodb-cluster"
	a := application.New(raw, testCatalog())
	c.Assert(a.PackagesToHold(), tc.DeepEquals, []string{"mysql-server-core-8.0"})
}

func (s *applicationSuite) TestCharmNameFromURL(c *tc.C) {
	c.Assert(application.CharmNameFromURL("ch:amd64/jammy/keystone-638"), tc.Equals, "keystone")
	c.Assert(application.CharmNameFromURL("cs:xenial/nova-compute-42"), tc.Equals, "nova-compute")
}

func (s *applicationSuite) TestSortedUnitNames(c *tc.C) {
	a := application.New(keystoneRaw(), testCatalog())
	c.Assert(a.SortedUnitNames(), tc.DeepEquals, []string{"keystone/0", "keystone/1"})
}

func (s *applicationSuite) TestIsVersionless(c *tc.C) {
	a := application.New(keystoneRaw(), testCatalog())
	c.Assert(a.IsVersionless(), tc.Equals, false)

	raw := keystoneRaw()
	raw.Units["keystone/0"] = juju.Unit{Name: "keystone/0"}
	raw.Units["keystone/1"] = juju.Unit{Name: "keystone/1"}
	empty := application.New(raw, testCatalog())
	c.Assert(empty.IsVersionless(), tc.Equals, true)
}
