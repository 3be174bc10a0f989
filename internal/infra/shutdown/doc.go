// Package shutdown runs named cleanup hooks once the process is asked to
// stop, either by SIGINT/SIGTERM or by Trigger.
package shutdown
