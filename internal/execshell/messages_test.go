package execshell

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMessageFormatterDescribesDatabricksCommands(t *testing.T) {
	formatter := CommandMessageFormatter{}
	removeCommand := ShellCommand{Name: CommandDatabricks, Details: CommandDetails{Arguments: []string{"fs", "rm", "--recursive", "dbfs:/tmp/x/"}}}
	listCommand := ShellCommand{Name: CommandDatabricks, Details: CommandDetails{Arguments: []string{"fs", "ls", "dbfs:/tmp"}}}
	configuredCommand := ShellCommand{Name: CommandName("/opt/tools/databricks"), Details: CommandDetails{Arguments: []string{"fs", "rm", "-r", "dbfs:/a"}}}
	otherCommand := ShellCommand{Name: CommandDatabricks, Details: CommandDetails{Arguments: []string{"version"}, WorkingDirectory: "/srv"}}

	testCases := []struct {
		name     string
		build    func() string
		expected string
	}{
		{name: "remove_start", build: func() string { return formatter.BuildStartedMessage(removeCommand) }, expected: "Removing dbfs:/tmp/x/ recursively"},
		{
			name: "remove_failure",
			build: func() string {
				return formatter.BuildFailureMessage(removeCommand, ExecutionResult{ExitCode: 1, StandardError: "denied"})
			},
			expected: "Failed to remove dbfs:/tmp/x/ recursively (exit code 1: denied)",
		},
		{name: "list_success", build: func() string { return formatter.BuildSuccessMessage(listCommand) }, expected: "Listed dbfs:/tmp"},
		{
			name:     "list_execution_failure",
			build:    func() string { return formatter.BuildExecutionFailureMessage(listCommand, errors.New("not found")) },
			expected: "Unable to list dbfs:/tmp: not found",
		},
		{name: "configured_path", build: func() string { return formatter.BuildStartedMessage(configuredCommand) }, expected: "Removing dbfs:/a recursively"},
		{name: "generic_start", build: func() string { return formatter.BuildStartedMessage(otherCommand) }, expected: "Running databricks version (in /srv)"},
		{
			name:     "generic_execution_failure_without_cause",
			build:    func() string { return formatter.BuildExecutionFailureMessage(otherCommand, nil) },
			expected: "databricks version (in /srv) failed: unknown error",
		},
	}

	for index, testCase := range testCases {
		t.Run(fmt.Sprintf("%d_%s", index, testCase.name), func(t *testing.T) {
			require.Equal(t, testCase.expected, testCase.build())
		})
	}
}
