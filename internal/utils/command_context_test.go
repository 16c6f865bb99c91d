package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/lakemove/internal/utils"
)

func TestCommandContextAccessorRoundTripsValues(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/lakemove/config.yaml")
	executionContext = accessor.WithLogLevel(executionContext, string(utils.LogLevelDebug))
	executionContext = accessor.WithRunIdentifier(executionContext, "run-1")

	configurationFilePath, configurationAvailable := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, configurationAvailable)
	require.Equal(testInstance, "/etc/lakemove/config.yaml", configurationFilePath)

	logLevel, logLevelAvailable := accessor.LogLevel(executionContext)
	require.True(testInstance, logLevelAvailable)
	require.Equal(testInstance, "debug", logLevel)

	runIdentifier, runIdentifierAvailable := accessor.RunIdentifier(executionContext)
	require.True(testInstance, runIdentifierAvailable)
	require.Equal(testInstance, "run-1", runIdentifier)
}

func TestCommandContextAccessorReportsMissingValues(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, available := accessor.RunIdentifier(context.Background())
	require.False(testInstance, available)
}
