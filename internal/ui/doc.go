// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate databricks CLI events and migration step transitions
// into concise console lines while detailed telemetry continues to flow
// through structured loggers.
package ui
