// Package monitor implements the periodic-refresh desktop applications:
// a system monitor that polls a metrics endpoint and graphs the samples,
// and a server status panel that polls and controls a remote service.
//
// Each application value is both the window content and the window's
// extension, so closing the window cancels its poller exactly once.
package monitor
