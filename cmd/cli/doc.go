// Package cli constructs the lakemove command-line interface. It wires the
// Cobra root command to the layered configuration loader, creates the
// diagnostic and console loggers, and registers the table-migrate command
// with connection and storage settings drawn from configuration.
package cli
