// Package utils exposes reusable helpers consumed by the lakemove commands.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, LAKEMOVE_ environment variables, and zap logging, plus the
// context accessor used to hand run metadata from the root command to
// subcommands.
package utils
