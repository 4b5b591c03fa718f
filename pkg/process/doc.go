// Package process launches and stops supervised service processes. Each
// service runs as an independent long-lived host process with its own
// environment, working directory, and per-service log files.
package process
