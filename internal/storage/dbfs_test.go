package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/lakemove/internal/execshell"
)

type recordingCommandExecutor struct {
	commands []execshell.ShellCommand
	failure  error
}

func (executor *recordingCommandExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, command)
	return execshell.ExecutionResult{}, executor.failure
}

func TestDatabricksCLIPurgerRunsRecursiveRemove(testInstance *testing.T) {
	executor := &recordingCommandExecutor{}
	purger := NewDatabricksCLIPurger(executor, DatabricksCLISettings{Host: "adb-123.azuredatabricks.net", AccessToken: "dapi-token"})

	report, purgeError := purger.Purge(context.Background(), "dbfs:/mnt/old/sales")
	require.NoError(testInstance, purgeError)
	require.Equal(testInstance, "dbfs:/mnt/old/sales", report.Location)
	require.Len(testInstance, executor.commands, 1)

	command := executor.commands[0]
	require.Equal(testInstance, execshell.CommandDatabricks, command.Name)
	require.Equal(testInstance, []string{"fs", "rm", "-r", "dbfs:/mnt/old/sales"}, command.Details.Arguments)
	require.Equal(testInstance, map[string]string{
		"DATABRICKS_HOST":  "https://adb-123.azuredatabricks.net",
		"DATABRICKS_TOKEN": "dapi-token",
	}, command.Details.EnvironmentVariables)
}

func TestDatabricksCLIPurgerUsesConfiguredExecutable(testInstance *testing.T) {
	executor := &recordingCommandExecutor{failure: execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 1}}}
	purger := NewDatabricksCLIPurger(executor, DatabricksCLISettings{ExecutablePath: "/opt/databricks/bin/databricks"})

	_, purgeError := purger.Purge(context.Background(), "dbfs:/mnt/old/sales")
	require.Error(testInstance, purgeError)
	require.IsType(testInstance, execshell.CommandFailedError{}, purgeError)
	require.Equal(testInstance, execshell.CommandName("/opt/databricks/bin/databricks"), executor.commands[0].Name)
	require.Empty(testInstance, executor.commands[0].Details.EnvironmentVariables)
}
