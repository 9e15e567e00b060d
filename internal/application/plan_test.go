package application_test

import (
	"context"
	"strings"

	"github.com/juju/tc"

	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/openstack"
	"github.com/canonical/cou/internal/step"
)

type planSuite struct{}

var _ = tc.Suite(&planSuite{})

func keystonePlanRaw() juju.Application {
	return juju.Application{
		Name:    "keystone",
		Charm:   "keystone",
		Channel: "ussuri/stable",
		Origin:  "ch",
		Series:  "focal",
		Config:  map[string]juju.ConfigValue{"openstack-origin": {Value: "distro"}},
		Units: map[string]juju.Unit{
			"keystone/0": {Name: "keystone/0", WorkloadVersion: "17.0.1", MachineID: "0"},
			"keystone/1": {Name: "keystone/1", WorkloadVersion: "17.0.1", MachineID: "1"},
			"keystone/2": {Name: "keystone/2", WorkloadVersion: "17.0.1", MachineID: "2"},
		},
	}
}

// descriptions flattens a tree into the Description of every node,
// depth-first, mirroring how RenderPlan/countSteps walk it.
func descriptions(s *step.Step) []string {
	out := []string{s.Description}
	for _, child := range s.Children() {
		out = append(out, descriptions(child)...)
	}
	return out
}

func containsSubstring(all []string, substr string) bool {
	for _, s := range all {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func (s *planSuite) TestGenerateUpgradePlanWholeApplicationHasNoPerUnitContainer(c *tc.C) {
	ctrl := newFakeController()
	a := application.New(keystonePlanRaw(), testCatalog())
	target, err := openstack.NewRelease("victoria")
	c.Assert(err, tc.ErrorIsNil)

	tree, err := application.GenerateUpgradePlan(context.Background(), ctrl, a, target, application.PlanOptions{ModelName: "openstack"})
	c.Assert(err, tc.ErrorIsNil)

	all := descriptions(tree)
	c.Assert(containsSubstring(all, "one unit at a time"), tc.IsFalse)
	c.Assert(containsSubstring(all, `Set action-managed-upgrade to False on "keystone"`), tc.IsTrue)
}

func (s *planSuite) TestGenerateUpgradePlanUnitByUnitAddsPerUnitContainer(c *tc.C) {
	ctrl := newFakeController()
	a := application.New(keystonePlanRaw(), testCatalog())
	target, err := openstack.NewRelease("victoria")
	c.Assert(err, tc.ErrorIsNil)

	opts := application.PlanOptions{ExplicitUnits: []string{"keystone/0"}, ModelName: "openstack"}
	tree, err := application.GenerateUpgradePlan(context.Background(), ctrl, a, target, opts)
	c.Assert(err, tc.ErrorIsNil)

	all := descriptions(tree)
	c.Assert(containsSubstring(all, "one unit at a time"), tc.IsTrue)
	c.Assert(containsSubstring(all, `Set action-managed-upgrade to True on "keystone"`), tc.IsTrue)
}

func (s *planSuite) TestGenerateUpgradePlanModelWaitDescriptionInterpolatesModelName(c *tc.C) {
	ctrl := newFakeController()
	a := application.New(keystonePlanRaw(), testCatalog())
	target, err := openstack.NewRelease("victoria")
	c.Assert(err, tc.ErrorIsNil)

	tree, err := application.GenerateUpgradePlan(context.Background(), ctrl, a, target, application.PlanOptions{ModelName: "openstack"})
	c.Assert(err, tc.ErrorIsNil)

	all := descriptions(tree)
	var waitLine string
	for _, d := range all {
		if strings.Contains(d, "reach the idle state") {
			waitLine = d
			break
		}
	}
	c.Assert(waitLine, tc.Not(tc.Equals), "")
	c.Assert(waitLine, tc.Contains, "openstack")
	c.Assert(strings.Count(waitLine, "reach the idle state"), tc.Equals, 1)
}
