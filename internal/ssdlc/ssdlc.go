// Package ssdlc emits the Secure Software Development Lifecycle system
// events (startup/shutdown/crash) that give an operator visibility into
// this process's lifecycle independent of whatever else it logs.
package ssdlc

import "time"

// SysEvent is one of the three lifecycle events this package emits.
type SysEvent string

const (
	Startup  SysEvent = "sys_startup"
	Shutdown SysEvent = "sys_shutdown"
	Crash    SysEvent = "sys_crash"
)

var eventMessages = map[SysEvent]string{
	Startup:  "charmed-openstack-upgrader start",
	Shutdown: "charmed-openstack-upgrader shutdown",
	Crash:    "charmed-openstack-upgrader crash",
}

const appID = "cou"

// Logger is the minimal surface LogSystemEvent needs; internal/logging
// wires in a loggo.Logger, which already satisfies this signature.
type Logger interface {
	Warningf(format string, args ...any)
}

// LogSystemEvent logs event in the structured shape SSDLC requires: a
// fixed appid, the event's wire value, and an RFC3339 timestamp, with an
// optional free-text msg appended to the event's fixed description.
func LogSystemEvent(logger Logger, event SysEvent, msg string) {
	description := eventMessages[event]
	if msg != "" {
		description = description + " " + msg
	}
	now := time.Now().Format(time.RFC3339)
	logger.Warningf(
		"datetime=%q appid=%q event=%q level=%q description=%q",
		now, appID, string(event), "WARN", description,
	)
}

// String implements fmt.Stringer for event so it can be logged or
// compared directly.
func (e SysEvent) String() string { return string(e) }
