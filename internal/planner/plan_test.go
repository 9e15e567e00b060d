package planner_test

import (
	"context"
	"strings"

	"github.com/juju/tc"

	"github.com/canonical/cou/internal/analysis"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/planner"
	"github.com/canonical/cou/internal/step"
)

type planSuite struct{}

var _ = tc.Suite(&planSuite{})

func baseStatus() juju.ClusterStatus {
	return juju.ClusterStatus{
		ModelName: "openstack",
		Applications: map[string]juju.Application{
			"keystone": {
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
				},
			},
			"keystone-ldap": {
				Name:    "keystone-ldap",
				Charm:   "keystone-ldap",
				Channel: "victoria/stable",
				Origin:  "ch",
				Series:  "focal",
				Units: map[string]juju.Unit{
					"keystone-ldap/0": {Name: "keystone-ldap/0", MachineID: "0"},
				},
			},
			"nova-compute": {
				Name:    "nova-compute",
				Charm:   "nova-compute",
				Channel: "ussuri/stable",
				Origin:  "ch",
				Series:  "focal",
				Units: map[string]juju.Unit{
					"nova-compute/0": {Name: "nova-compute/0", WorkloadVersion: "21.0.0", MachineID: "9"},
				},
				Machines: map[string]juju.Machine{
					"9": {ID: "9", AvailabilityZone: "zone-a"},
				},
			},
		},
	}
}

func (s *planSuite) TestGeneratePlanAssemblesControlAndDataPlane(c *tc.C) {
	cat := testCatalog()
	ctrl := newFakeController()
	ctrl.actionResults["nova-compute/0/instance-count"] = juju.ActionResult{Results: map[string]string{"instance-count": "0"}}
	ctrl.status = baseStatus()

	a, err := analysis.Create(context.Background(), ctrl, cat)
	c.Assert(err, tc.ErrorIsNil)

	result, err := planner.GeneratePlan(context.Background(), ctrl, a, cat, planner.Options{NoBackup: true})
	c.Assert(err, tc.ErrorIsNil)
	c.Assert(result.Target.String(), tc.Equals, "victoria")

	// keystone-ldap is already tracking victoria/stable with nothing left
	// to do, so it halts plan generation for itself and is reported as an
	// advisory rather than aborting the whole run.
	c.Assert(len(result.Advisories), tc.Equals, 1)
	c.Assert(result.Advisories[0], tc.Contains, "keystone-ldap")

	// Verifying idle is a step of the tree; planning itself never waits.
	c.Assert(ctrl.idleCalls, tc.Equals, 0)

	// The tree has: verify-idle, a control-plane principal group
	// (keystone), and a hypervisor group (nova-compute); no backup step
	// (NoBackup) and no subordinate group (keystone-ldap dropped all the
	// way, leaving the group empty and therefore unattached).
	descriptions := childDescriptions(result.Tree)
	c.Assert(descriptions, tc.DeepEquals, []string{
		"Verify the model is idle",
		"Upgrade applications",
		`Upgrade hypervisors for "nova-compute"`,
	})
}

func (s *planSuite) TestGeneratePlanSkipControlPlane(c *tc.C) {
	cat := testCatalog()
	ctrl := newFakeController()
	ctrl.actionResults["nova-compute/0/instance-count"] = juju.ActionResult{Results: map[string]string{"instance-count": "0"}}
	ctrl.status = baseStatus()

	a, err := analysis.Create(context.Background(), ctrl, cat)
	c.Assert(err, tc.ErrorIsNil)

	result, err := planner.GeneratePlan(context.Background(), ctrl, a, cat, planner.Options{NoBackup: true, SkipControlPlane: true})
	c.Assert(err, tc.ErrorIsNil)

	descriptions := childDescriptions(result.Tree)
	c.Assert(descriptions, tc.DeepEquals, []string{
		"Verify the model is idle",
		`Upgrade hypervisors for "nova-compute"`,
	})
}

func (s *planSuite) TestGeneratePlanWithBackup(c *tc.C) {
	cat := testCatalog()
	ctrl := newFakeController()
	ctrl.actionResults["nova-compute/0/instance-count"] = juju.ActionResult{Results: map[string]string{"instance-count": "0"}}
	ctrl.actionResults["mysql-innodb-cluster/0/mysqldump"] = juju.ActionResult{Results: map[string]string{"mysqldump-file": "/var/backups/dump.sql"}}
	status := baseStatus()
	status.Applications["mysql-innodb-cluster"] = juju.Application{
		Name:    "mysql-innodb-cluster",
		Charm:   "mysql-innodb-cluster",
		Channel: "8.0/stable",
		Origin:  "ch",
		Series:  "focal",
		Units: map[string]juju.Unit{
			"mysql-innodb-cluster/0": {Name: "mysql-innodb-cluster/0", WorkloadVersion: "8.0.18", MachineID: "5"},
		},
	}
	ctrl.status = status

	a, err := analysis.Create(context.Background(), ctrl, cat)
	c.Assert(err, tc.ErrorIsNil)

	result, err := planner.GeneratePlan(context.Background(), ctrl, a, cat, planner.Options{BackupDir: "/tmp"})
	c.Assert(err, tc.ErrorIsNil)

	backupStep := findStep(result.Tree, func(d string) bool { return strings.Contains(d, "Back up") })
	c.Assert(backupStep, tc.NotNil)
	c.Assert(backupStep.Run(context.Background()), tc.ErrorIsNil)
	c.Assert(ctrl.actionCalls, tc.Contains, "mysql-innodb-cluster/0/mysqldump")
	c.Assert(ctrl.scpCalls, tc.DeepEquals, []string{"mysql-innodb-cluster/0:/var/backups/dump.sql->/tmp/dump.sql"})
}

// findStep searches the tree depth-first for the first step whose
// description satisfies match.
func findStep(tree *step.Step, match func(string) bool) *step.Step {
	if match(tree.Description) {
		return tree
	}
	for _, child := range tree.Children() {
		if found := findStep(child, match); found != nil {
			return found
		}
	}
	return nil
}

func childDescriptions(tree *step.Step) []string {
	out := make([]string, 0, len(tree.Children()))
	for _, child := range tree.Children() {
		out = append(out, child.Description)
	}
	return out
}
