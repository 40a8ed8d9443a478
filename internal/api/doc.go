// Package api exposes the external REST interface for submitting telemetry
// records, replaying failures and inspecting dead-letter and plugin state.
package api
