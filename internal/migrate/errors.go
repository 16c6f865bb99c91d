package migrate

import (
	"errors"
	"strings"
)

const (
	completedStepsSeparatorConstant = ", "
	noCompletedStepsConstant        = "none"
)

// Failure kinds raised by a migration. A StepError matches exactly one of them with errors.Is.
var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrTableNotFound      = errors.New("table not found")
	ErrDescribeFailed     = errors.New("describe failed")
	ErrCloneFailed        = errors.New("clone failed")
	ErrVerificationFailed = errors.New("verification failed")
	ErrAborted            = errors.New("migration aborted")
	ErrDropFailed         = errors.New("drop failed")
	ErrPurgeFailed        = errors.New("purge failed")
	ErrRegisterFailed     = errors.New("register failed")
)

// StepError reports the step that stopped a migration. Its message is the underlying message unchanged so
// that warehouse and storage errors reach the operator verbatim.
type StepError struct {
	Step           Step
	Kind           error
	Cause          error
	CompletedSteps []Step
}

// Error returns the cause message.
func (stepError *StepError) Error() string {
	if stepError.Cause != nil {
		return stepError.Cause.Error()
	}
	if stepError.Kind != nil {
		return stepError.Kind.Error()
	}
	return stepError.Step.Title()
}

// Unwrap exposes the cause.
func (stepError *StepError) Unwrap() error {
	return stepError.Cause
}

// Is matches the failure kind.
func (stepError *StepError) Is(target error) bool {
	return stepError.Kind != nil && target == stepError.Kind
}

// CompletedStepTitles lists the steps finished before the failure, or "none".
func (stepError *StepError) CompletedStepTitles() string {
	if len(stepError.CompletedSteps) == 0 {
		return noCompletedStepsConstant
	}
	titles := make([]string, 0, len(stepError.CompletedSteps))
	for _, step := range stepError.CompletedSteps {
		titles = append(titles, step.Title())
	}
	return strings.Join(titles, completedStepsSeparatorConstant)
}
