// Package couerrors defines the error taxonomy used across the upgrader.
//
// Every kind is a distinct type so callers can discriminate with errors.As,
// while still carrying a causal chain via github.com/juju/errors.
package couerrors

import (
	goerrors "errors"
	"fmt"

	"github.com/juju/errors"
)

// UnknownReleaseError is raised when a codename cannot be resolved against
// the release catalog.
type UnknownReleaseError struct {
	Codename string
}

func (e *UnknownReleaseError) Error() string {
	return fmt.Sprintf("unknown OpenStack release: %q", e.Codename)
}

// NewUnknownRelease wraps a codename lookup failure.
func NewUnknownRelease(codename string) error {
	return errors.Trace(&UnknownReleaseError{Codename: codename})
}

// UnknownCharmError is raised when a charm has no entry in the release
// catalog's classification tables.
type UnknownCharmError struct {
	Charm string
}

func (e *UnknownCharmError) Error() string {
	return fmt.Sprintf("unknown charm: %q", e.Charm)
}

func NewUnknownCharm(charm string) error {
	return errors.Trace(&UnknownCharmError{Charm: charm})
}

// InvalidChannelError is raised when an application's channel does not
// parse to a valid track for its charm/series.
type InvalidChannelError struct {
	App     string
	Channel string
}

func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("application %q has invalid channel %q", e.App, e.Channel)
}

func NewInvalidChannel(app, channel string) error {
	return errors.Trace(&InvalidChannelError{App: app, Channel: channel})
}

// ApplicationError is raised for invariant violations on a single
// application: mismatched track, invalid origin, OVN too old, workload not
// upgraded, enable-auto-restarts disabled, and similar.
type ApplicationError struct {
	App string
	Msg string
}

func (e *ApplicationError) Error() string {
	if e.App == "" {
		return e.Msg
	}
	return fmt.Sprintf("application %q: %s", e.App, e.Msg)
}

func NewApplicationError(app, format string, args ...any) error {
	return errors.Trace(&ApplicationError{App: app, Msg: fmt.Sprintf(format, args...)})
}

// MismatchedOpenStackVersionsError is raised when a principal application's
// units disagree on workload version and no explicit unit subset was given.
type MismatchedOpenStackVersionsError struct {
	App      string
	Versions map[string]string // unit name -> release codename
}

func (e *MismatchedOpenStackVersionsError) Error() string {
	return fmt.Sprintf("application %q has units at mismatched OpenStack releases: %v", e.App, e.Versions)
}

func NewMismatchedOpenStackVersions(app string, versions map[string]string) error {
	return errors.Trace(&MismatchedOpenStackVersionsError{App: app, Versions: versions})
}

// HaltUpgradePlanGeneration is a soft signal: the application has nothing to
// do for the requested target. It is not a failure; the plan assembler logs
// and drops the application.
type HaltUpgradePlanGeneration struct {
	App    string
	Reason string
}

func (e *HaltUpgradePlanGeneration) Error() string {
	return fmt.Sprintf("nothing to upgrade for application %q: %s", e.App, e.Reason)
}

func NewHaltUpgradePlanGeneration(app, reason string) error {
	return &HaltUpgradePlanGeneration{App: app, Reason: reason}
}

// HaltUpgradeExecution fails a single unit's subtree without failing its
// siblings, e.g. a non-empty hypervisor refusing to upgrade without force.
type HaltUpgradeExecution struct {
	Unit   string
	Reason string
}

func (e *HaltUpgradeExecution) Error() string {
	return fmt.Sprintf("unit %q refused to upgrade: %s", e.Unit, e.Reason)
}

func NewHaltUpgradeExecution(unit, reason string) error {
	return errors.Trace(&HaltUpgradeExecution{Unit: unit, Reason: reason})
}

// NoTargetError is raised when a target release cannot be computed because
// inputs are missing.
type NoTargetError struct {
	Msg string
}

func (e *NoTargetError) Error() string { return "no upgrade target: " + e.Msg }

func NewNoTarget(format string, args ...any) error {
	return errors.Trace(&NoTargetError{Msg: fmt.Sprintf(format, args...)})
}

// HighestReleaseAchievedError is raised when the cloud is already at the
// highest release known to the catalog.
type HighestReleaseAchievedError struct {
	Release string
}

func (e *HighestReleaseAchievedError) Error() string {
	return fmt.Sprintf("cloud is already at the highest supported release: %s", e.Release)
}

func NewHighestReleaseAchieved(release string) error {
	return errors.Trace(&HighestReleaseAchievedError{Release: release})
}

// OutOfSupportRangeError is raised when the minimum cloud release falls
// outside the range this tool supports for the detected series.
type OutOfSupportRangeError struct {
	Release string
	Series  string
}

func (e *OutOfSupportRangeError) Error() string {
	return fmt.Sprintf("release %q is out of the supported range for series %q", e.Release, e.Series)
}

func NewOutOfSupportRange(release, series string) error {
	return errors.Trace(&OutOfSupportRangeError{Release: release, Series: series})
}

// TimeoutError wraps a deadline expiry, treated as a step failure.
type TimeoutError struct {
	Op      string
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Op)
}

func NewTimeout(op, timeout string) error {
	return errors.Trace(&TimeoutError{Op: op, Timeout: timeout})
}

// VaultSealedError is a pre-flight failure; planning aborts.
type VaultSealedError struct {
	App string
}

func (e *VaultSealedError) Error() string {
	return fmt.Sprintf("vault application %q is sealed; see https://docs.openstack.org/charm-guide for remediation", e.App)
}

func NewVaultSealed(app string) error {
	return errors.Trace(&VaultSealedError{App: app})
}

// ActionFailedError wraps a Juju action that completed with a failed status.
type ActionFailedError struct {
	Unit   string
	Action string
	Status string
	Output string
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("action %q on unit %q failed (status=%s): %s", e.Action, e.Unit, e.Status, e.Output)
}

func NewActionFailed(unit, action, status, output string) error {
	return errors.Trace(&ActionFailedError{Unit: unit, Action: action, Status: status, Output: output})
}

// CommandRunFailedError wraps a non-zero exit from run_on_unit.
type CommandRunFailedError struct {
	Unit    string
	Command string
	Code    int
	Stderr  string
}

func (e *CommandRunFailedError) Error() string {
	return fmt.Sprintf("command %q on unit %q exited %d: %s", e.Command, e.Unit, e.Code, e.Stderr)
}

func NewCommandRunFailed(unit, command string, code int, stderr string) error {
	return errors.Trace(&CommandRunFailedError{Unit: unit, Command: command, Code: code, Stderr: stderr})
}

// RunUpgradeError covers Ceph-release resolution failures and similar
// "cannot proceed with this upgrade step" conditions.
type RunUpgradeError struct {
	Msg string
}

func (e *RunUpgradeError) Error() string { return e.Msg }

func NewRunUpgradeError(format string, args ...any) error {
	return errors.Trace(&RunUpgradeError{Msg: fmt.Sprintf(format, args...)})
}

// UnitNotFoundError and ApplicationNotFoundError come from the controller
// layer when a named entity does not exist in the model.
type UnitNotFoundError struct{ Unit string }

func (e *UnitNotFoundError) Error() string { return fmt.Sprintf("unit %q not found", e.Unit) }

func NewUnitNotFound(unit string) error {
	return errors.Trace(&UnitNotFoundError{Unit: unit})
}

type ApplicationNotFoundError struct{ App string }

func (e *ApplicationNotFoundError) Error() string {
	return fmt.Sprintf("application %q not found", e.App)
}

func NewApplicationNotFound(app string) error {
	return errors.Trace(&ApplicationNotFoundError{App: app})
}

// IsHalt reports whether err (or its cause) is a HaltUpgradePlanGeneration,
// the only error kind the plan assembler treats as non-fatal.
func IsHalt(err error) bool {
	var halt *HaltUpgradePlanGeneration
	return goerrors.As(err, &halt)
}
