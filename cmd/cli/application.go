package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/lakemove/internal/catalog"
	"github.com/temirov/lakemove/internal/migrate"
	"github.com/temirov/lakemove/internal/storage"
	"github.com/temirov/lakemove/internal/utils"
	"github.com/temirov/lakemove/internal/utils/flags"
)

const (
	applicationNameConstant                 = "lakemove"
	applicationShortDescriptionConstant     = "Move Delta tables between storage locations"
	applicationLongDescriptionConstant      = "lakemove relocates Delta tables registered in a SQL warehouse: it clones each table to a new location, verifies the copy, and registers the table again under its original name."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagDescriptionConstant         = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagDescriptionConstant        = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	platformConfigurationKeyConstant        = "platform"
	platformTimeoutConfigKeyConstant        = platformConfigurationKeyConstant + ".timeout"
	storageConfigurationKeyConstant         = "storage"
	storageDatabricksCLIConfigKeyConstant   = storageConfigurationKeyConstant + ".databricks_cli"
	toolsConfigurationKeyConstant           = "tools"
	tableMigrateConfigurationKeyConstant    = toolsConfigurationKeyConstant + ".table_migrate"
	environmentPrefixConstant               = "LAKEMOVE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationRunIdentifierFieldConstant = "run_id"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "lakemove CLI executed"
	rootCommandDebugMessageConstant         = "lakemove CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultPlatformTimeoutConstant          = 10 * time.Minute
	defaultDatabricksCLIConstant            = "databricks"
)

var (
	supportedLogLevels  = []string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}
	supportedLogFormats = []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration   `mapstructure:"common"`
	Platform ApplicationPlatformConfiguration `mapstructure:"platform"`
	Storage  ApplicationStorageConfiguration  `mapstructure:"storage"`
	Tools    ApplicationToolsConfiguration    `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationPlatformConfiguration describes how to reach the SQL warehouse that owns the table catalog.
type ApplicationPlatformConfiguration struct {
	DSN         string        `mapstructure:"dsn"`
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	HTTPPath    string        `mapstructure:"http_path"`
	AccessToken string        `mapstructure:"access_token"`
	Catalog     string        `mapstructure:"catalog"`
	Schema      string        `mapstructure:"schema"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ApplicationStorageConfiguration holds credentials and endpoints for the object stores data files live in.
type ApplicationStorageConfiguration struct {
	AWSRegion          string `mapstructure:"aws_region"`
	S3Endpoint         string `mapstructure:"s3_endpoint"`
	GCSCredentialsFile string `mapstructure:"gcs_credentials_file"`
	AzureAccountKey    string `mapstructure:"azure_account_key"`
	DatabricksCLI      string `mapstructure:"databricks_cli"`
	LocalRoot          string `mapstructure:"local_root"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands.
type ApplicationToolsConfiguration struct {
	TableMigrate migrate.CommandConfiguration `mapstructure:"table_migrate"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		utils.DefaultSearchPaths(applicationNameConstant),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogLevelInfo), supportedLogLevels, logLevelFlagDescriptionConstant))
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogFormatStructured), supportedLogFormats, logFormatFlagDescriptionConstant))

	tableMigrationBuilder := migrate.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConsoleLoggerProvider: func() *zap.Logger {
			return application.consoleLogger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider: func() migrate.CommandConfiguration {
			return application.configuration.Tools.TableMigrate
		},
		ConnectionSettingsProvider: application.connectionSettings,
		StorageSettingsProvider:    application.storageSettings,
	}
	tableMigrationCommand, tableMigrationBuildError := tableMigrationBuilder.Build()
	if tableMigrationBuildError == nil {
		cobraCommand.AddCommand(tableMigrationCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
// An interrupt or termination signal cancels the context so in-flight statements stop.
func (application *Application) Execute() error {
	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	return application.ExecuteContext(signalContext, os.Args[1:])
}

// ExecuteContext runs the command hierarchy with the provided arguments under executionContext.
func (application *Application) ExecuteContext(executionContext context.Context, arguments []string) error {
	application.rootCommand.SetArgs(flags.NormalizeToggleArguments(arguments))
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// InitializeForCommand loads configuration for the named subcommand without running it.
func (application *Application) InitializeForCommand(commandUse string) error {
	targetCommand := application.rootCommand
	for _, candidate := range application.rootCommand.Commands() {
		if candidate.Name() == commandUse {
			targetCommand = candidate
			break
		}
	}
	if targetCommand.Context() == nil {
		targetCommand.SetContext(context.Background())
	}
	return application.initializeConfiguration(targetCommand)
}

// Configuration returns the configuration resolved by the last initialization.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// Command exposes the root Cobra command.
func (application *Application) Command() *cobra.Command {
	return application.rootCommand
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:       string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:      string(utils.LogFormatStructured),
		platformTimeoutConfigKeyConstant:      defaultPlatformTimeoutConstant,
		storageDatabricksCLIConfigKeyConstant: defaultDatabricksCLIConstant,
	}
	for configurationKey, configurationValue := range migrate.DefaultConfigurationValues(tableMigrateConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	resolvedLogLevel, logLevelError := flags.ResolveChoice(application.configuration.Common.LogLevel, string(utils.LogLevelInfo), supportedLogLevels)
	if logLevelError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, logLevelError)
	}
	application.configuration.Common.LogLevel = resolvedLogLevel

	resolvedLogFormat, logFormatError := flags.ResolveChoice(application.configuration.Common.LogFormat, string(utils.LogFormatStructured), supportedLogFormats)
	if logFormatError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, logFormatError)
	}
	application.configuration.Common.LogFormat = resolvedLogFormat

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	runIdentifier := uuid.NewString()

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationRunIdentifierFieldConstant, runIdentifier),
	)

	if command != nil {
		parentContext := command.Context()
		if parentContext == nil {
			parentContext = context.Background()
		}
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			parentContext,
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithLogLevel(updatedContext, application.configuration.Common.LogLevel)
		updatedContext = application.commandContextAccessor.WithRunIdentifier(updatedContext, runIdentifier)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) connectionSettings() catalog.ConnectionSettings {
	platform := application.configuration.Platform
	return catalog.ConnectionSettings{
		DSN:         platform.DSN,
		Host:        platform.Host,
		Port:        platform.Port,
		HTTPPath:    platform.HTTPPath,
		AccessToken: platform.AccessToken,
		Catalog:     platform.Catalog,
		Schema:      platform.Schema,
		Timeout:     platform.Timeout,
	}
}

// storageSettings reuses the warehouse host and token for the Databricks CLI so DBFS purges hit the same workspace.
func (application *Application) storageSettings() storage.Settings {
	storageConfiguration := application.configuration.Storage
	return storage.Settings{
		AWSRegion:          storageConfiguration.AWSRegion,
		S3Endpoint:         storageConfiguration.S3Endpoint,
		GCSCredentialsFile: storageConfiguration.GCSCredentialsFile,
		AzureAccountKey:    storageConfiguration.AzureAccountKey,
		DatabricksCLI: storage.DatabricksCLISettings{
			ExecutablePath: storageConfiguration.DatabricksCLI,
			Host:           application.configuration.Platform.Host,
			AccessToken:    application.configuration.Platform.AccessToken,
		},
		LocalRoot: storageConfiguration.LocalRoot,
	}
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return application.syncLoggerInstance(application.consoleLogger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
