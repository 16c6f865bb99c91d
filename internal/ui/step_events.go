package ui

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	stepStartedTemplateConstant   = "[%d/%d] %s"
	stepCompletedTemplateConstant = "[%d/%d] %s done in %s"
	stepSkippedTemplateConstant   = "[%d/%d] %s skipped: %s"
	stepFailedTemplateConstant    = "[%d/%d] %s failed: %s"
	unknownStepFailureConstant    = "unknown error"
	stepDurationRounding          = time.Millisecond
)

// ConsoleStepEventLogger renders migration step transitions as numbered console lines.
type ConsoleStepEventLogger struct {
	logger     *zap.Logger
	totalSteps int
}

// NewConsoleStepEventLogger constructs a step logger for a run of totalSteps steps.
func NewConsoleStepEventLogger(logger *zap.Logger, totalSteps int) *ConsoleStepEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleStepEventLogger{logger: logger, totalSteps: totalSteps}
}

// StepStarted announces a step.
func (eventLogger *ConsoleStepEventLogger) StepStarted(stepNumber int, stepTitle string) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(fmt.Sprintf(stepStartedTemplateConstant, stepNumber, eventLogger.totalSteps, stepTitle))
}

// StepCompleted reports a finished step with its elapsed time.
func (eventLogger *ConsoleStepEventLogger) StepCompleted(stepNumber int, stepTitle string, elapsed time.Duration) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(fmt.Sprintf(stepCompletedTemplateConstant, stepNumber, eventLogger.totalSteps, stepTitle, elapsed.Round(stepDurationRounding)))
}

// StepSkipped reports a step that was intentionally not run.
func (eventLogger *ConsoleStepEventLogger) StepSkipped(stepNumber int, stepTitle string, reason string) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(fmt.Sprintf(stepSkippedTemplateConstant, stepNumber, eventLogger.totalSteps, stepTitle, reason))
}

// StepFailed reports a step that ended the run.
func (eventLogger *ConsoleStepEventLogger) StepFailed(stepNumber int, stepTitle string, failure error) {
	if eventLogger == nil {
		return
	}
	failureMessage := unknownStepFailureConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	eventLogger.logger.Error(fmt.Sprintf(stepFailedTemplateConstant, stepNumber, eventLogger.totalSteps, stepTitle, failureMessage))
}
