// Package juju defines the external contracts this upgrader depends on:
// the shape of cluster state as reported by the controller, and the
// narrow Controller interface through which all cluster interaction
// happens. It also holds the client side: Connect (connect.go) dials the
// controller's websocket API and logs in, and a facade-client-style
// Controller implementation is built on top of that connection. A dropped
// connection is not re-established.
package juju

import "time"

// Machine is a Juju machine: a host carrying one or more units.
type Machine struct {
	ID                 string
	Hostname           string
	AvailabilityZone   string // empty if the substrate does not report one
	IsDataPlane        bool
}

// Unit is a single unit of a deployed application.
type Unit struct {
	Name            string
	ApplicationName string
	MachineID       string
	WorkloadVersion string // may be empty for versionless applications
	AgentStatus     string
}

// Application is the raw, untyped shape of a deployed application as
// reported by the controller. internal/application wraps this into the
// typed variant hierarchy.
type Application struct {
	Name          string
	Charm         string // charm name, e.g. "keystone"
	CharmURL      string // full reference, e.g. "ch:amd64/jammy/keystone-638"
	Channel       string // e.g. "ussuri/stable"
	Origin        string // "ch" or "cs"
	Series        string
	Config        map[string]ConfigValue
	SubordinateTo []string // principal application names this is subordinate to
	CanUpgradeTo  string   // revision/channel the charm store offers, if any
	Units         map[string]Unit
	Machines      map[string]Machine
}

// ConfigValue is one entry of an application's charm config, matching the
// shape reported by get_application_config (a value plus metadata such as
// whether it was explicitly set).
type ConfigValue struct {
	Value  any
	Source string // "default", "user", "unset"
}

// ClusterStatus is the full status snapshot returned by GetStatus.
type ClusterStatus struct {
	ModelName    string
	Applications map[string]Application
}

// CommandResult is the result of RunOnUnit.
type CommandResult struct {
	Stdout string
	Stderr string
	Code   int
}

// ActionResult is the result of RunAction.
type ActionResult struct {
	Status  string // "completed", "failed", "pending", ...
	Results map[string]string
	Message string
}

// UpgradeCharmParams parameterizes UpgradeCharm; zero values mean "leave
// unspecified" except where noted.
type UpgradeCharmParams struct {
	Channel     string
	Switch      string // new charm URL, used for charmstore->charmhub migration
	Revision    int    // 0 means "latest in channel"
	Path        string // local charm path, rarely used
	ForceUnits  bool
	ForceSeries bool
}

// WaitForActiveIdleParams parameterizes WaitForActiveIdle.
type WaitForActiveIdleParams struct {
	Timeout         time.Duration
	Applications    []string // empty means "the whole model"
	RaiseOnBlocked  bool
	IdlePeriod      time.Duration
}
