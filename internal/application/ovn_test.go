package application_test

import (
	"context"

	"github.com/juju/tc"

	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/openstack"
)

type ovnSuite struct{}

var _ = tc.Suite(&ovnSuite{})

func ovnCentralRaw() juju.Application {
	return juju.Application{
		Name:    "ovn-central",
		Charm:   "ovn-central",
		Channel: "22.03/stable",
		Origin:  "ch",
		Series:  "focal",
		Config:  map[string]juju.ConfigValue{},
		Units: map[string]juju.Unit{
			"ovn-central/0": {Name: "ovn-central/0", WorkloadVersion: "22.3.0", MachineID: "0"},
		},
	}
}

func (s *ovnSuite) TestRejectsPreOVN2203(c *tc.C) {
	raw := ovnCentralRaw()
	raw.Units["ovn-central/0"] = juju.Unit{Name: "ovn-central/0", WorkloadVersion: "20.12.0", MachineID: "0"}
	a := application.New(raw, testCatalog())

	target, err := openstack.NewRelease("yoga")
	c.Assert(err, tc.ErrorIsNil)

	_, err = application.GenerateUpgradePlan(context.Background(), newFakeController(), a, target, application.PlanOptions{})
	c.Assert(err, tc.NotNil)
	c.Assert(err.Error(), tc.Contains, "OVN versions lower than 22.03 are not supported")
}

func (s *ovnSuite) TestAcceptsAtMinimumVersion(c *tc.C) {
	a := application.New(ovnCentralRaw(), testCatalog())

	target, err := openstack.NewRelease("yoga")
	c.Assert(err, tc.ErrorIsNil)

	_, err = application.GenerateUpgradePlan(context.Background(), newFakeController(), a, target, application.PlanOptions{})
	c.Assert(err, tc.ErrorIsNil)
}
