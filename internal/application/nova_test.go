package application_test

import (
	"context"

	"github.com/juju/tc"

	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/juju"
)

type novaSuite struct{}

var _ = tc.Suite(&novaSuite{})

func novaRaw() juju.Application {
	return juju.Application{
		Name:   "nova-compute",
		Charm:  "nova-compute",
		Origin: "ch",
		Series: "focal",
		Config: map[string]juju.ConfigValue{},
		Units: map[string]juju.Unit{
			"nova-compute/0": {Name: "nova-compute/0", WorkloadVersion: "21.0.0", MachineID: "0"},
		},
	}
}

func (s *novaSuite) TestEmptyHypervisorUpgradesNormally(c *tc.C) {
	ctrl := newFakeController()
	ctrl.actionResults["nova-compute/0/instance-count"] = juju.ActionResult{Results: map[string]string{"instance-count": "0"}}

	a := application.New(novaRaw(), testCatalog())
	unit := a.UnitUpgradeSteps(ctrl, "nova-compute/0", application.NovaUnitPlanOptions{Force: false})

	c.Assert(unit.Run(context.Background()), tc.ErrorIsNil)
	c.Assert(ctrl.actionCalls, tc.DeepEquals, []string{
		"nova-compute/0/disable",
		"nova-compute/0/instance-count",
		"nova-compute/0/pause",
		"nova-compute/0/openstack-upgrade",
		"nova-compute/0/resume",
		"nova-compute/0/enable",
	})
}

func (s *novaSuite) TestNonEmptyHypervisorHaltsButStillReenables(c *tc.C) {
	ctrl := newFakeController()
	ctrl.actionResults["nova-compute/0/instance-count"] = juju.ActionResult{Results: map[string]string{"instance-count": "3"}}

	a := application.New(novaRaw(), testCatalog())
	unit := a.UnitUpgradeSteps(ctrl, "nova-compute/0", application.NovaUnitPlanOptions{Force: false})

	err := unit.Run(context.Background())
	c.Assert(err, tc.NotNil)
	c.Assert(err.Error(), tc.Contains, "refused to upgrade")

	c.Assert(ctrl.actionCalls, tc.DeepEquals, []string{
		"nova-compute/0/disable",
		"nova-compute/0/instance-count",
		"nova-compute/0/enable",
	})
}

func (s *novaSuite) TestForceSkipsEmptyHypervisorCheck(c *tc.C) {
	ctrl := newFakeController()
	ctrl.actionResults["nova-compute/0/instance-count"] = juju.ActionResult{Results: map[string]string{"instance-count": "5"}}

	a := application.New(novaRaw(), testCatalog())
	unit := a.UnitUpgradeSteps(ctrl, "nova-compute/0", application.NovaUnitPlanOptions{Force: true})

	c.Assert(unit.Run(context.Background()), tc.ErrorIsNil)
	c.Assert(ctrl.actionCalls, tc.DeepEquals, []string{
		"nova-compute/0/disable",
		"nova-compute/0/pause",
		"nova-compute/0/openstack-upgrade",
		"nova-compute/0/resume",
		"nova-compute/0/enable",
	})
}

func (s *novaSuite) TestEmptyHypervisorMachines(c *tc.C) {
	ctrl := newFakeController()
	ctrl.actionResults["nova-compute/0/instance-count"] = juju.ActionResult{Results: map[string]string{"instance-count": "0"}}
	ctrl.actionResults["nova-compute/1/instance-count"] = juju.ActionResult{Results: map[string]string{"instance-count": "2"}}

	units := map[string]juju.Unit{
		"nova-compute/0": {Name: "nova-compute/0", MachineID: "0"},
		"nova-compute/1": {Name: "nova-compute/1", MachineID: "1"},
	}

	machines, err := application.EmptyHypervisorMachines(context.Background(), ctrl, units)
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(machines, tc.DeepEquals, []string{"0"})
}
