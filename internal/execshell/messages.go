package execshell

import (
	"fmt"
	"path/filepath"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	unknownPathLabelConstant                = "unknown path"
	windowsExecutableSuffixConstant         = ".exe"
)

const (
	databricksFileSystemSubcommandConstant = "fs"
	databricksRemoveSubcommandConstant     = "rm"
	databricksListSubcommandConstant       = "ls"
	databricksRecursiveFlagConstant        = "-r"
	databricksRecursiveLongFlagConstant    = "--recursive"
	flagPrefixConstant                     = "-"
)

const (
	databricksRemoveStartTemplateConstant            = "Removing %s%s"
	databricksRemoveSuccessTemplateConstant          = "Removed %s%s"
	databricksRemoveFailureTemplateConstant          = "Failed to remove %s%s (exit code %d%s)"
	databricksRemoveExecutionFailureTemplateConstant = "Unable to remove %s%s: %s"
	databricksRecursiveSuffixConstant                = " recursively"
	databricksListStartTemplateConstant              = "Listing %s"
	databricksListSuccessTemplateConstant            = "Listed %s"
	databricksListFailureTemplateConstant            = "Failed to list %s (exit code %d%s)"
	databricksListExecutionFailureTemplateConstant   = "Unable to list %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if IsDatabricksCommand(command.Name) {
		return formatter.describeDatabricksMessage(command, result, failure, stage)
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

// IsDatabricksCommand reports whether the executable is the databricks CLI, including configured absolute paths.
func IsDatabricksCommand(name CommandName) bool {
	executableName := strings.TrimSuffix(filepath.Base(string(name)), windowsExecutableSuffixConstant)
	return executableName == string(CommandDatabricks)
}

func (formatter CommandMessageFormatter) describeDatabricksMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < 2 || strings.TrimSpace(arguments[0]) != databricksFileSystemSubcommandConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	operands := formatter.extractOperands(arguments[2:])
	target := unknownPathLabelConstant
	if len(operands) > 0 {
		target = operands[len(operands)-1]
	}

	switch strings.TrimSpace(arguments[1]) {
	case databricksRemoveSubcommandConstant:
		recursiveSuffix := emptyStringConstant
		if containsArgument(arguments, databricksRecursiveFlagConstant) || containsArgument(arguments, databricksRecursiveLongFlagConstant) {
			recursiveSuffix = databricksRecursiveSuffixConstant
		}
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(databricksRemoveStartTemplateConstant, target, recursiveSuffix)
		case messageStageSuccess:
			return fmt.Sprintf(databricksRemoveSuccessTemplateConstant, target, recursiveSuffix)
		case messageStageFailure:
			return fmt.Sprintf(databricksRemoveFailureTemplateConstant, target, recursiveSuffix, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(databricksRemoveExecutionFailureTemplateConstant, target, recursiveSuffix, formatter.describeFailure(failure))
		}
	case databricksListSubcommandConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(databricksListStartTemplateConstant, target)
		case messageStageSuccess:
			return fmt.Sprintf(databricksListSuccessTemplateConstant, target)
		case messageStageFailure:
			return fmt.Sprintf(databricksListFailureTemplateConstant, target, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(databricksListExecutionFailureTemplateConstant, target, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = commandLabel + commandArgumentsJoinSeparatorConstant + strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) extractOperands(arguments []string) []string {
	operands := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 || strings.HasPrefix(trimmedArgument, flagPrefixConstant) {
			continue
		}
		operands = append(operands, trimmedArgument)
	}
	return operands
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
