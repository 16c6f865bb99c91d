package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/lakemove/internal/utils"
)

const (
	testEnvironmentPrefixConstant          = "TESTLAKEMOVE"
	testPlatformHostKeyConstant            = "platform.host"
	testPlatformHostEnvironmentConstant    = "TESTLAKEMOVE_PLATFORM_HOST"
	testDefaultHostConstant                = "default.cloud.databricks.com"
	testEmbeddedHostConstant               = "embedded.cloud.databricks.com"
	testFileHostConstant                   = "file.cloud.databricks.com"
	testEnvironmentHostConstant            = "environment.cloud.databricks.com"
	testConfigFileNameConstant             = "config.yaml"
	testConfigContentTemplateConstant      = "platform:\n  host: %s\n  http_path: /sql/1.0/warehouses/abc\n"
	testConfigurationNameConstant          = "config"
	testConfigurationTypeConstant          = "yaml"
	testApplicationDirectoryNameConstant   = "lakemove"
	configurationLoaderSubtestNameTemplate = "%d_%s"
)

type configurationFixture struct {
	Platform platformFixture `mapstructure:"platform"`
}

type platformFixture struct {
	Host     string `mapstructure:"host"`
	HTTPPath string `mapstructure:"http_path"`
}

func TestConfigurationLoaderLoadConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name             string
		embeddedHost     string
		fileHost         string
		environmentHost  string
		expectedHost     string
		expectedHTTPPath string
	}{
		{
			name:         "embedded_configuration_overrides_defaults",
			embeddedHost: testEmbeddedHostConstant,
			expectedHost: testEmbeddedHostConstant,
		},
		{
			name:         "defaults_apply_without_embedded_value",
			embeddedHost: "",
			expectedHost: testDefaultHostConstant,
		},
		{
			name:             "file_overrides_embedded_configuration",
			embeddedHost:     testEmbeddedHostConstant,
			fileHost:         testFileHostConstant,
			expectedHost:     testFileHostConstant,
			expectedHTTPPath: "/sql/1.0/warehouses/abc",
		},
		{
			name:             "environment_overrides_file",
			embeddedHost:     testEmbeddedHostConstant,
			fileHost:         testFileHostConstant,
			environmentHost:  testEnvironmentHostConstant,
			expectedHost:     testEnvironmentHostConstant,
			expectedHTTPPath: "/sql/1.0/warehouses/abc",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(configurationLoaderSubtestNameTemplate, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			tempDirectory := testInstance.TempDir()

			configurationFilePath := ""
			if len(testCase.fileHost) > 0 {
				configurationFilePath = filepath.Join(tempDirectory, testConfigFileNameConstant)
				configurationContent := fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileHost)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationContent), 0o600))
			}

			if len(testCase.environmentHost) > 0 {
				testInstance.Setenv(testPlatformHostEnvironmentConstant, testCase.environmentHost)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{tempDirectory})
			if len(testCase.embeddedHost) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf("platform:\n  host: %s\n", testCase.embeddedHost)), testConfigurationTypeConstant)
			}

			defaultValues := map[string]any{
				testPlatformHostKeyConstant: testDefaultHostConstant,
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedHost, loadedConfiguration.Platform.Host)
			require.Equal(testInstance, testCase.expectedHTTPPath, loadedConfiguration.Platform.HTTPPath)

			if len(configurationFilePath) > 0 {
				require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
			} else {
				require.Empty(testInstance, metadata.ConfigFileUsed)
			}
		})
	}
}

func TestConfigurationLoaderRejectsMalformedFile(testInstance *testing.T) {
	configurationFilePath := filepath.Join(testInstance.TempDir(), testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte("platform: [unterminated"), 0o600))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)

	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration(configurationFilePath, nil, &loadedConfiguration)
	require.Error(testInstance, loadError)
	require.Contains(testInstance, loadError.Error(), "failed to read configuration")
}

func TestDefaultSearchPathsIncludesUserConfigurationDirectory(testInstance *testing.T) {
	homeDirectoryPath := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectoryPath)
	testInstance.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDirectoryPath, "config"))

	userConfigurationDirectory, userConfigurationError := os.UserConfigDir()
	require.NoError(testInstance, userConfigurationError)

	searchPaths := utils.DefaultSearchPaths(testApplicationDirectoryNameConstant)
	require.Equal(testInstance, []string{".", filepath.Join(userConfigurationDirectory, testApplicationDirectoryNameConstant)}, searchPaths)
}
