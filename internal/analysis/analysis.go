// Package analysis builds the typed view of a cluster that the plan
// assembler consumes: classified applications, the control-plane/data-
// plane split, and the aggregate current-release/current-series figures
// used to pick an upgrade target.
package analysis

import (
	"context"
	"sort"
	"strings"

	"github.com/canonical/cou/internal/application"
	"github.com/canonical/cou/internal/juju"
	"github.com/canonical/cou/internal/openstack"
)

// Analysis is the classified snapshot of one cluster, ready for planning.
type Analysis struct {
	ModelName string
	Apps      []*application.Application

	// Unclassified holds applications whose charm is not in the release
	// catalog's known set at all. They are kept for display (sweep_up)
	// but excluded from planning.
	Unclassified []*application.Application
}

// Create reads cluster state from ctrl and classifies every deployed
// application, per §4.4 steps 1-3.
func Create(ctx context.Context, ctrl juju.Controller, cat *openstack.Catalog) (*Analysis, error) {
	status, err := ctrl.GetStatus(ctx)
	if err != nil {
		return nil, err
	}

	var a Analysis
	a.ModelName = status.ModelName

	names := make([]string, 0, len(status.Applications))
	for name := range status.Applications {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := status.Applications[name]
		app := application.New(raw, cat)
		if app.Kind == application.KindPlain {
			a.Unclassified = append(a.Unclassified, app)
			continue
		}
		a.Apps = append(a.Apps, app)
	}

	order := cat.UpgradeOrder()
	rank := make(map[string]int, len(order))
	for i, charm := range order {
		rank[charm] = i
	}
	sort.SliceStable(a.Apps, func(i, j int) bool {
		ri, iok := rank[a.Apps[i].Charm]
		rj, jok := rank[a.Apps[j].Charm]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return a.Apps[i].Name < a.Apps[j].Name
		}
	})

	return &a, nil
}

// String dumps every classified and unclassified application, one per
// line, mirroring Analysis.__str__.
func (a *Analysis) String() string {
	var lines []string
	for _, app := range a.Apps {
		lines = append(lines, app.String())
	}
	for _, app := range a.Unclassified {
		lines = append(lines, app.String())
	}
	return strings.Join(lines, "\n")
}

// SplitApps partitions apps into control-plane and data-plane groups per
// §4.4 step 4: an application is data-plane if its charm is in the
// catalog's data-plane set, or any of its units shares a machine with a
// unit belonging to a data-plane application. Subordinates inherit the
// classification of the machines they occupy.
func SplitApps(apps []*application.Application, cat *openstack.Catalog) (controlPlane, dataPlane []*application.Application) {
	dataPlaneMachines := map[string]bool{}
	for _, app := range apps {
		if cat.IsDataPlane(app.Charm) {
			for _, unit := range app.Units {
				dataPlaneMachines[unit.MachineID] = true
			}
		}
	}

	var undecidedSubordinates []*application.Application
	for _, app := range apps {
		switch {
		case cat.IsDataPlane(app.Charm):
			dataPlane = append(dataPlane, app)
		case app.Kind == application.KindSubordinate || app.Kind == application.KindOvnSubordinate || app.Kind == application.KindAuxiliarySubordinate:
			undecidedSubordinates = append(undecidedSubordinates, app)
		default:
			isDataPlane := false
			for _, unit := range app.Units {
				if dataPlaneMachines[unit.MachineID] {
					isDataPlane = true
					break
				}
			}
			if isDataPlane {
				dataPlane = append(dataPlane, app)
				for _, unit := range app.Units {
					dataPlaneMachines[unit.MachineID] = true
				}
			} else {
				controlPlane = append(controlPlane, app)
			}
		}
	}

	for _, app := range undecidedSubordinates {
		isDataPlane := false
		for _, unit := range app.Units {
			if dataPlaneMachines[unit.MachineID] {
				isDataPlane = true
				break
			}
		}
		if isDataPlane {
			dataPlane = append(dataPlane, app)
		} else {
			controlPlane = append(controlPlane, app)
		}
	}

	return controlPlane, dataPlane
}

// MinOSReleaseApps computes the minimum current_os_release across apps,
// excluding channel-based applications that still require a crossgrade
// (channel "latest*" or origin "cs"), per §4.4 step 5.
func MinOSReleaseApps(apps []*application.Application) (openstack.Release, bool) {
	var min openstack.Release
	found := false
	for _, app := range apps {
		if app.Kind == application.KindChannelBased && needsCrossgrade(app) {
			continue
		}
		current, err := app.CurrentOSRelease()
		if err != nil {
			continue
		}
		if !found || current.Before(min) {
			min = current
			found = true
		}
	}
	return min, found
}

func needsCrossgrade(app *application.Application) bool {
	if app.Origin == "cs" {
		return true
	}
	return strings.HasPrefix(app.Channel, "latest")
}

// CurrentCloudSeries computes the minimum Ubuntu series string across
// apps, per §4.4 step 6.
func CurrentCloudSeries(apps []*application.Application) (openstack.Series, error) {
	var codenames []string
	for _, app := range apps {
		if app.Series != "" {
			codenames = append(codenames, app.Series)
		}
	}
	return openstack.MinSeries(codenames)
}

// SweepUnclassified reports the names of applications this tool could not
// classify at all, so the caller can log them instead of silently
// dropping them — see SPEC_FULL.md's "Upgrade group sweep" supplemented
// feature.
func (a *Analysis) SweepUnclassified() []string {
	names := make([]string, 0, len(a.Unclassified))
	for _, app := range a.Unclassified {
		names = append(names, app.Name)
	}
	sort.Strings(names)
	return names
}
