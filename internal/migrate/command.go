package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/lakemove/internal/catalog"
	"github.com/temirov/lakemove/internal/execshell"
	"github.com/temirov/lakemove/internal/storage"
	"github.com/temirov/lakemove/internal/ui"
	"github.com/temirov/lakemove/internal/utils"
	"github.com/temirov/lakemove/internal/utils/flags"
)

const (
	commandUseConstant                    = "table-migrate"
	commandShortDescriptionConstant       = "Move a Delta table to a new storage location"
	commandLongDescriptionConstant        = "table-migrate clones a table to <external-url><table>, compares both copies, drops the original registration, removes the original files of unmanaged tables, and registers the table again at the new location under its original name."
	externalURLFlagNameConstant           = "external-url"
	externalURLFlagUsageConstant          = "Base URL the table name is appended to, for example abfss://container@account.dfs.core.windows.net/gold/"
	tableFlagNameConstant                 = "table"
	tableFlagUsageConstant                = "Name of the table to move; the table keeps this name"
	databaseFlagNameConstant              = "database"
	databaseFlagUsageConstant             = "Database (schema) that contains the table"
	catalogFlagNameConstant               = "catalog"
	catalogFlagUsageConstant              = "Catalog that contains the database, for three-level names"
	managedFlagNameConstant               = "managed"
	managedFlagUsageConstant              = "Whether the platform owns the table files; unmanaged tables have their original files removed"
	strictFlagNameConstant                = "strict"
	strictFlagUsageConstant               = "Stop before dropping anything when the original and cloned rows differ"
	sampleRowsFlagNameConstant            = "sample-rows"
	sampleRowsFlagUsageConstant           = "Rows shown for each difference direction and for the final preview"
	planFlagNameConstant                  = "plan"
	planFlagUsageConstant                 = "YAML file listing tables to migrate one after another"
	sessionCreationErrorTemplateConstant  = "unable to connect to the SQL warehouse: %w"
	sessionCloseWarningMessageConstant    = "Closing the SQL warehouse connection failed"
	logMessagePlanLoadedConstant          = "Migration plan loaded"
	logFieldPlanPathConstant              = "plan"
	logFieldPlanEntriesConstant           = "tables"
	commandRunIdentifierFieldNameConstant = "run_id"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ServiceProvider constructs a migration executor from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (MigrationExecutor, error)

// SessionProvider opens a catalog session and returns a function that releases it.
type SessionProvider func(settings catalog.ConnectionSettings, observer catalog.StatementObserver) (catalog.Session, func() error, error)

// PurgerProvider builds the purger used for unmanaged tables.
type PurgerProvider func(settings storage.Settings, executor storage.CommandExecutor) storage.Purger

// PrompterFactory creates confirmation prompters scoped to a Cobra command.
type PrompterFactory func(*cobra.Command) ConfirmationPrompter

type commandOptions struct {
	debugLoggingEnabled bool
	configuration       CommandConfiguration
}

// CommandBuilder assembles the table-migrate Cobra command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConsoleLoggerProvider        LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	ConnectionSettingsProvider   func() catalog.ConnectionSettings
	StorageSettingsProvider      func() storage.Settings
	Executor                     storage.CommandExecutor
	SessionProvider              SessionProvider
	PurgerProvider               PurgerProvider
	ServiceProvider              ServiceProvider
	PrompterFactory              PrompterFactory
}

// Build constructs the table-migrate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runMigration,
	}

	defaults := DefaultCommandConfiguration()
	flagSet := command.Flags()
	flagSet.String(externalURLFlagNameConstant, "", externalURLFlagUsageConstant)
	flagSet.String(tableFlagNameConstant, "", tableFlagUsageConstant)
	flagSet.String(databaseFlagNameConstant, "", databaseFlagUsageConstant)
	flagSet.String(catalogFlagNameConstant, "", catalogFlagUsageConstant)
	flags.AddToggleFlag(flagSet, nil, managedFlagNameConstant, "", defaults.Managed, managedFlagUsageConstant)
	flagSet.Bool(strictFlagNameConstant, defaults.Strict, strictFlagUsageConstant)
	flagSet.Int(sampleRowsFlagNameConstant, defaults.SampleRows, sampleRowsFlagUsageConstant)
	flagSet.String(planFlagNameConstant, "", planFlagUsageConstant)
	flags.BindExecutionFlags(command, flags.ExecutionDefaults{}, flags.DefaultExecutionFlagDefinitions())

	return command, nil
}

func (builder *CommandBuilder) runMigration(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}
	configuration := options.configuration

	runIdentifier := resolveRunIdentifier(command.Context())
	logger := builder.resolveLogger(options.debugLoggingEnabled).With(zap.String(commandRunIdentifierFieldNameConstant, runIdentifier))
	consoleLogger := builder.resolveConsoleLogger(logger)

	runs, runsError := builder.planRuns(configuration, runIdentifier, logger)
	if runsError != nil {
		return runsError
	}

	executor, executorError := builder.resolveExecutor(logger, consoleLogger)
	if executorError != nil {
		return executorError
	}

	session, closeSession, sessionError := builder.resolveSession(logger)
	if sessionError != nil {
		return fmt.Errorf(sessionCreationErrorTemplateConstant, sessionError)
	}
	defer func() {
		if closeSession == nil {
			return
		}
		if closeError := closeSession(); closeError != nil {
			logger.Warn(sessionCloseWarningMessageConstant, zap.Error(closeError))
		}
	}()

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:       logger,
		Session:      session,
		Purger:       builder.resolvePurger(executor),
		Reporter:     NewConsoleReporter(command.OutOrStdout()),
		Prompter:     builder.resolvePrompter(command),
		StepObserver: ui.NewConsoleStepEventLogger(consoleLogger, TotalSteps),
	})
	if serviceError != nil {
		return serviceError
	}

	if len(runs) == 1 && len(configuration.PlanPath) == 0 {
		_, executionError := service.Execute(command.Context(), runs[0])
		return executionError
	}
	_, planError := ExecutePlan(command.Context(), service, runs)
	return planError
}

// planRuns validates every requested table before anything connects to the warehouse.
func (builder *CommandBuilder) planRuns(configuration CommandConfiguration, runIdentifier string, logger *zap.Logger) ([]MigrationOptions, error) {
	parameters := []RequestParameters{{
		ExternalURL: configuration.ExternalURL,
		Table:       configuration.Table,
		Database:    configuration.Database,
		Catalog:     configuration.Catalog,
		Managed:     configuration.Managed,
	}}

	if len(configuration.PlanPath) > 0 {
		plan, planError := LoadPlan(configuration.PlanPath)
		if planError != nil {
			return nil, planError
		}
		parameters = plan.Parameters(configuration)
		logger.Info(
			logMessagePlanLoadedConstant,
			zap.String(logFieldPlanPathConstant, configuration.PlanPath),
			zap.Int(logFieldPlanEntriesConstant, len(parameters)),
		)
	}

	runs := make([]MigrationOptions, 0, len(parameters))
	for _, requestParameters := range parameters {
		if _, requestError := ResolveRequest(requestParameters); requestError != nil {
			return nil, requestError
		}
		runs = append(runs, MigrationOptions{
			Parameters:    requestParameters,
			SampleRows:    configuration.SampleRows,
			DryRun:        configuration.DryRun,
			Strict:        configuration.Strict,
			AssumeYes:     configuration.AssumeYes,
			RunIdentifier: runIdentifier,
		})
	}
	return runs, nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (commandOptions, error) {
	configuration := builder.resolveConfiguration()

	debugEnabled := false
	if command != nil {
		contextAccessor := utils.NewCommandContextAccessor()
		if logLevel, available := contextAccessor.LogLevel(command.Context()); available {
			if strings.EqualFold(logLevel, string(utils.LogLevelDebug)) {
				debugEnabled = true
			}
		}
	}

	if command != nil {
		flagSet := command.Flags()
		if flagSet.Changed(externalURLFlagNameConstant) {
			configuration.ExternalURL, _ = flagSet.GetString(externalURLFlagNameConstant)
		}
		if flagSet.Changed(tableFlagNameConstant) {
			configuration.Table, _ = flagSet.GetString(tableFlagNameConstant)
		}
		if flagSet.Changed(databaseFlagNameConstant) {
			configuration.Database, _ = flagSet.GetString(databaseFlagNameConstant)
		}
		if flagSet.Changed(catalogFlagNameConstant) {
			configuration.Catalog, _ = flagSet.GetString(catalogFlagNameConstant)
		}
		if flagSet.Changed(managedFlagNameConstant) {
			managedValue := flagSet.Lookup(managedFlagNameConstant).Value.String()
			parsedManaged, parseError := flags.ParseToggleValue(managedValue)
			if parseError != nil {
				return commandOptions{}, parseError
			}
			configuration.Managed = parsedManaged
		}
		if flagSet.Changed(strictFlagNameConstant) {
			configuration.Strict, _ = flagSet.GetBool(strictFlagNameConstant)
		}
		if flagSet.Changed(sampleRowsFlagNameConstant) {
			configuration.SampleRows, _ = flagSet.GetInt(sampleRowsFlagNameConstant)
		}
		if flagSet.Changed(planFlagNameConstant) {
			configuration.PlanPath, _ = flagSet.GetString(planFlagNameConstant)
		}
		if flagSet.Changed(flags.DryRunFlagName) {
			configuration.DryRun, _ = flagSet.GetBool(flags.DryRunFlagName)
		}
		if flagSet.Changed(flags.AssumeYesFlagName) {
			configuration.AssumeYes, _ = flagSet.GetBool(flags.AssumeYesFlagName)
		}
	}

	return commandOptions{
		debugLoggingEnabled: debugEnabled,
		configuration:       configuration.Sanitize(),
	}, nil
}

func (builder *CommandBuilder) resolveLogger(enableDebug bool) *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if enableDebug {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.DebugLevel))
	}
	return logger
}

func (builder *CommandBuilder) resolveConsoleLogger(fallback *zap.Logger) *zap.Logger {
	if builder.ConsoleLoggerProvider != nil {
		if consoleLogger := builder.ConsoleLoggerProvider(); consoleLogger != nil {
			return consoleLogger
		}
	}
	return fallback
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger, consoleLogger *zap.Logger) (storage.CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor.WithEventObserver(ui.NewConsoleCommandEventLogger(consoleLogger)), nil
}

func (builder *CommandBuilder) resolveSession(logger *zap.Logger) (catalog.Session, func() error, error) {
	settings := catalog.ConnectionSettings{}
	if builder.ConnectionSettingsProvider != nil {
		settings = builder.ConnectionSettingsProvider()
	}
	observer := catalog.NewLoggingStatementObserver(logger)

	if builder.SessionProvider != nil {
		return builder.SessionProvider(settings, observer)
	}

	database, openError := catalog.OpenDatabase(settings)
	if openError != nil {
		return nil, nil, openError
	}
	return catalog.NewSQLSession(database, observer), database.Close, nil
}

func (builder *CommandBuilder) resolvePurger(executor storage.CommandExecutor) storage.Purger {
	settings := storage.Settings{}
	if builder.StorageSettingsProvider != nil {
		settings = builder.StorageSettingsProvider()
	}
	if builder.PurgerProvider != nil {
		return builder.PurgerProvider(settings, executor)
	}
	return storage.NewDefaultRouter(settings, executor)
}

func (builder *CommandBuilder) resolvePrompter(command *cobra.Command) ConfirmationPrompter {
	if builder.PrompterFactory != nil {
		if prompter := builder.PrompterFactory(command); prompter != nil {
			return prompter
		}
	}
	return NewIOConfirmationPrompter(command.InOrStdin(), command.OutOrStdout())
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (MigrationExecutor, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

func resolveRunIdentifier(executionContext context.Context) string {
	if executionContext != nil {
		if runIdentifier, available := utils.NewCommandContextAccessor().RunIdentifier(executionContext); available {
			return runIdentifier
		}
	}
	return uuid.NewString()
}
