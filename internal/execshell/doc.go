// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and lets lakemove drive the databricks CLI for
// workspace file system operations in a testable manner.
package execshell
