package application_test

import (
	"context"

	"github.com/juju/tc"

	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/openstack"
)

type cephSuite struct{}

var _ = tc.Suite(&cephSuite{})

func cephMonRaw() juju.Application {
	return juju.Application{
		Name:    "ceph-mon",
		Charm:   "ceph-mon",
		Channel: "pacific/stable",
		Origin:  "ch",
		Series:  "focal",
		Config:  map[string]juju.ConfigValue{},
		Units: map[string]juju.Unit{
			"ceph-mon/0": {Name: "ceph-mon/0", WorkloadVersion: "17.0.1", MachineID: "0"},
		},
	}
}

func (s *cephSuite) TestGenerateUpgradePlanSetsRequireOSDRelease(c *tc.C) {
	ctrl := newFakeController()
	ctrl.actionResults["ceph-mon/0/ceph-versions"] = juju.ActionResult{Results: map[string]string{"osd": "17.2.5"}}
	ctrl.actionResults["ceph-mon/0/ceph-osd-dump"] = juju.ActionResult{Results: map[string]string{"require-osd-release": "pacific"}}

	a := application.New(cephMonRaw(), testCatalog())
	target, err := openstack.NewRelease("yoga")
	c.Assert(err, tc.ErrorIsNil)

	tree, err := application.GenerateUpgradePlan(context.Background(), ctrl, a, target, application.PlanOptions{})
	c.Assert(err, tc.ErrorIsNil)

	// Simulate the unit reporting its upgraded workload version once the
	// upgrade steps above have actually run, so the post-upgrade verify
	// step (re-reading a.Units at run time) finds the unit at target.
	a.Units["ceph-mon/0"] = juju.Unit{Name: "ceph-mon/0", WorkloadVersion: "18.1.0", MachineID: "0"}

	c.Assert(tree.Run(context.Background()), tc.ErrorIsNil)
	c.Assert(ctrl.actionCalls, tc.Contains, "ceph-mon/0/ceph-versions")
	c.Assert(ctrl.actionCalls, tc.Contains, "ceph-mon/0/ceph-osd-dump")
	c.Assert(ctrl.actionCalls, tc.Contains, "ceph-mon/0/set-require-osd-release")
}

// TestReconcileSkipsWhenAlreadySet uses a unit already at yoga (whose
// ceph release and the next release's, zed, both map to "quincy" in the
// test catalog) so both the pre- and post-upgrade reconcile steps target
// the same already-set value and neither issues set-require-osd-release.
func (s *cephSuite) TestReconcileSkipsWhenAlreadySet(c *tc.C) {
	ctrl := newFakeController()
	ctrl.actionResults["ceph-mon/0/ceph-versions"] = juju.ActionResult{Results: map[string]string{"osd": "17.2.5"}}
	ctrl.actionResults["ceph-mon/0/ceph-osd-dump"] = juju.ActionResult{Results: map[string]string{"require-osd-release": "quincy"}}

	raw := cephMonRaw()
	raw.Channel = "quincy/stable"
	raw.Units["ceph-mon/0"] = juju.Unit{Name: "ceph-mon/0", WorkloadVersion: "18.1.0", MachineID: "0"}

	a := application.New(raw, testCatalog())
	target, err := openstack.NewRelease("yoga")
	c.Assert(err, tc.ErrorIsNil)

	tree, err := application.GenerateUpgradePlan(context.Background(), ctrl, a, target, application.PlanOptions{})
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(tree.Run(context.Background()), tc.ErrorIsNil)

	for _, call := range ctrl.actionCalls {
		c.Assert(call, tc.Not(tc.Equals), "ceph-mon/0/set-require-osd-release")
	}
}
