package planner

import (
	"context"
	"fmt"
	"sort"

	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/couerrors"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/step"
)

// HypervisorOptions controls how the Hypervisor Upgrade Planner groups
// and orders nova-compute units.
type HypervisorOptions struct {
	Force bool
	// Machines/Hostnames/AvailabilityZones restrict the planned units to
	// those whose machine matches, per the data-plane subcommand's
	// mutually-exclusive targeting flags. All empty means "every unit".
	Machines          []string
	Hostnames         []string
	AvailabilityZones []string
}

func (o HypervisorOptions) matches(m juju.Machine) bool {
	if len(o.Machines) == 0 && len(o.Hostnames) == 0 && len(o.AvailabilityZones) == 0 {
		return true
	}
	if contains(o.Machines, m.ID) {
		return true
	}
	if contains(o.Hostnames, m.Hostname) {
		return true
	}
	if contains(o.AvailabilityZones, m.AvailabilityZone) {
		return true
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// BuildHypervisorPlan groups nova's units by availability zone (lexical
// order) then by machine ID within each zone, and composes a step tree
// pairing each nova-compute unit with any co-located subordinate units,
// subordinates first. Ports the hypervisor upgrade planner's "AZ by AZ,
// machine by machine" ordering rule.
//
// subordinates maps a nova-compute unit name to the co-located
// subordinate unit names (e.g. its ceilometer-agent, a ceph-osd, ...)
// that must be paused/upgraded/resumed alongside it.
func BuildHypervisorPlan(
	ctx context.Context,
	ctrl juju.Controller,
	nova *application.Application,
	machines map[string]juju.Machine,
	subordinates map[string][]string,
	opts HypervisorOptions,
) (*step.Step, error) {
	if err := sanityCheckOneUnitPerMachine(nova, machines); err != nil {
		return nil, err
	}

	type planned struct {
		unit    string
		machine juju.Machine
	}
	var units []planned
	for _, name := range sortedUnitNames(nova.Units) {
		u := nova.Units[name]
		m, ok := machines[u.MachineID]
		if !ok {
			return nil, couerrors.NewApplicationError(nova.Name, "unit %q is on unknown machine %q", name, u.MachineID)
		}
		if !opts.matches(m) {
			continue
		}
		units = append(units, planned{unit: name, machine: m})
	}

	sort.SliceStable(units, func(i, j int) bool {
		if units[i].machine.AvailabilityZone != units[j].machine.AvailabilityZone {
			return units[i].machine.AvailabilityZone < units[j].machine.AvailabilityZone
		}
		return units[i].machine.ID < units[j].machine.ID
	})

	root := step.New(fmt.Sprintf("Upgrade hypervisors for %q", nova.Name), step.CategoryHypervisorUpgradePlan)

	var currentAZ string
	var azGroup *step.Step
	for i, p := range units {
		if i == 0 || p.machine.AvailabilityZone != currentAZ {
			currentAZ = p.machine.AvailabilityZone
			label := currentAZ
			if label == "" {
				label = "(no availability zone)"
			}
			azGroup = step.New(fmt.Sprintf("Availability zone %q", label), step.CategoryUnit)
			root.AddChild(azGroup)
		}

		machineGroup := step.New(fmt.Sprintf("Machine %q", p.machine.ID), step.CategoryUnit)
		for _, sub := range subordinates[p.unit] {
			machineGroup.AddChild(application.SubordinateUnitUpgradeStep(ctrl, sub))
		}
		machineGroup.AddChild(nova.UnitUpgradeSteps(ctrl, p.unit, application.NovaUnitPlanOptions{Force: opts.Force}))
		azGroup.AddChild(machineGroup)
	}

	return root, nil
}

// sanityCheckOneUnitPerMachine enforces the invariant that every machine
// carrying a nova-compute unit carries exactly one: a machine hosting two
// hypervisors of the same application cannot be safely paired with a
// single AZ/machine ordering slot.
func sanityCheckOneUnitPerMachine(nova *application.Application, machines map[string]juju.Machine) error {
	count := make(map[string]int)
	for _, u := range nova.Units {
		count[u.MachineID]++
	}
	for machineID, n := range count {
		if n != 1 {
			return couerrors.NewApplicationError(nova.Name, "machine %q carries %d nova-compute units, expected exactly 1", machineID, n)
		}
		if _, ok := machines[machineID]; !ok {
			return couerrors.NewApplicationError(nova.Name, "machine %q not found in cluster status", machineID)
		}
	}
	return nil
}

func sortedUnitNames(units map[string]juju.Unit) []string {
	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
