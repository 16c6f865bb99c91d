package storage

import (
	"context"
	"strings"

	"github.com/temirov/lakemove/internal/execshell"
)

const (
	databricksFileSystemArgument = "fs"
	databricksRemoveArgument     = "rm"
	databricksRecursiveArgument  = "-r"
	databricksHostEnvironment    = "DATABRICKS_HOST"
	databricksTokenEnvironment   = "DATABRICKS_TOKEN"
	httpsSchemePrefix            = "https://"
	schemeSeparator              = "://"
	unknownObjectCount           = -1
)

// CommandExecutor runs an external command.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// DatabricksCLIPurger removes dbfs:/ paths with "databricks fs rm -r".
type DatabricksCLIPurger struct {
	executor    CommandExecutor
	commandName execshell.CommandName
	environment map[string]string
}

// DatabricksCLISettings configures the CLI invocation.
type DatabricksCLISettings struct {
	ExecutablePath string
	Host           string
	AccessToken    string
}

// NewDatabricksCLIPurger constructs a purger that authenticates the CLI against the configured workspace when a
// host and token are supplied and falls back to the CLI's own profile otherwise.
func NewDatabricksCLIPurger(executor CommandExecutor, settings DatabricksCLISettings) *DatabricksCLIPurger {
	commandName := execshell.CommandDatabricks
	if trimmedPath := strings.TrimSpace(settings.ExecutablePath); len(trimmedPath) > 0 {
		commandName = execshell.CommandName(trimmedPath)
	}

	environment := map[string]string{}
	if trimmedHost := strings.TrimSpace(settings.Host); len(trimmedHost) > 0 {
		if !strings.Contains(trimmedHost, schemeSeparator) {
			trimmedHost = httpsSchemePrefix + trimmedHost
		}
		environment[databricksHostEnvironment] = trimmedHost
	}
	if trimmedToken := strings.TrimSpace(settings.AccessToken); len(trimmedToken) > 0 {
		environment[databricksTokenEnvironment] = trimmedToken
	}

	return &DatabricksCLIPurger{executor: executor, commandName: commandName, environment: environment}
}

// Purge removes the location recursively. The CLI does not report how many files it removed.
func (purger *DatabricksCLIPurger) Purge(executionContext context.Context, location string) (PurgeReport, error) {
	command := execshell.ShellCommand{
		Name: purger.commandName,
		Details: execshell.CommandDetails{
			Arguments:            []string{databricksFileSystemArgument, databricksRemoveArgument, databricksRecursiveArgument, location},
			EnvironmentVariables: purger.environment,
		},
	}
	if _, executionError := purger.executor.Execute(executionContext, command); executionError != nil {
		return PurgeReport{}, executionError
	}
	return PurgeReport{Location: location, ObjectsDeleted: unknownObjectCount}, nil
}
