// Package telemetry provides fire-and-forget operational events.
//
// Components emit events through the Emitter interface without knowing which
// handlers consume them. The in-memory emitter fans each event out to every
// registered handler; LogHandler writes events to a structured logger and
// Recorder keeps them for inspection in tests and the CLI.
package telemetry
