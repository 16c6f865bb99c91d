package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/lakemove/internal/catalog"
	"github.com/temirov/lakemove/internal/storage"
)

const (
	sessionMissingMessageConstant        = "catalog session not configured"
	purgerMissingMessageConstant         = "storage purger not configured"
	overlappingLocationTemplateConstant  = "%w: new location %q overlaps the current location %q of %s"
	differenceFoundTemplateConstant      = "%w: %d rows of %s are missing from %s"
	operatorDeclinedTemplateConstant     = "%w: operator declined to drop %s"
	dryRunSkipReasonConstant             = "dry run"
	managedSkipReasonConstant            = "managed table files are removed with the table"
	logMessageMigrationStartedConstant   = "Table migration started"
	logMessageMigrationCompletedConstant = "Table migration completed"
	logMessageMigrationFailedConstant    = "Table migration failed"
	logMessageManagedMismatchConstant    = "Managed flag differs from the table type reported by the platform"
	logMessageDifferenceFoundConstant    = "Original and cloned tables differ"
	logMessageLocationMismatchConstant   = "New table location does not match the target"
	logFieldRunIdentifierConstant        = "run_id"
	logFieldTableConstant                = "table"
	logFieldNewLocationConstant          = "new_location"
	logFieldSourceLocationConstant       = "source_location"
	logFieldManagedConstant              = "managed"
	logFieldTableTypeConstant            = "table_type"
	logFieldStepConstant                 = "step"
	logFieldCompletedStepsConstant       = "completed_steps"
	logFieldMissingFromCloneConstant     = "missing_from_clone"
	logFieldExtraInCloneConstant         = "extra_in_clone"
	logFieldActualLocationConstant       = "actual_location"
	logFieldDryRunConstant               = "dry_run"
	accessibilityCheckRowLimitConstant   = 0
)

var (
	errSessionMissing = errors.New(sessionMissingMessageConstant)
	errPurgerMissing  = errors.New(purgerMissingMessageConstant)
)

// StepObserver receives progress notifications for every migration step.
type StepObserver interface {
	StepStarted(stepNumber int, stepTitle string)
	StepCompleted(stepNumber int, stepTitle string, elapsed time.Duration)
	StepSkipped(stepNumber int, stepTitle string, reason string)
	StepFailed(stepNumber int, stepTitle string, failure error)
}

// MigrationExecutor runs one table migration.
type MigrationExecutor interface {
	Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error)
}

// ServiceDependencies describes required collaborators for migration.
type ServiceDependencies struct {
	Logger       *zap.Logger
	Session      catalog.Session
	Purger       storage.Purger
	Reporter     Reporter
	Prompter     ConfirmationPrompter
	StepObserver StepObserver
}

// MigrationOptions configures one run.
type MigrationOptions struct {
	Parameters    RequestParameters
	SampleRows    int
	DryRun        bool
	Strict        bool
	AssumeYes     bool
	RunIdentifier string
}

// MigrationResult captures the observable outcomes.
type MigrationResult struct {
	Request          MigrationRequest
	SourceDetail     catalog.TableDetail
	MissingFromClone catalog.RowDifference
	ExtraInClone     catalog.RowDifference
	Purged           bool
	PurgeReport      storage.PurgeReport
	Preview          catalog.RowSample
	LocationStatus   LocationStatus
	CompletedSteps   []Step
	DryRun           bool
}

// ContentsMatch reports whether both difference directions were empty.
func (result MigrationResult) ContentsMatch() bool {
	return result.MissingFromClone.Empty() && result.ExtraInClone.Empty()
}

// Service orchestrates the clone, verify, drop and re-register sequence.
type Service struct {
	logger           *zap.Logger
	session          catalog.Session
	purger           storage.Purger
	reporter         Reporter
	prompter         ConfirmationPrompter
	stepObserver     StepObserver
	locationVerifier LocationVerifier
}

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Session == nil {
		return nil, errSessionMissing
	}
	if dependencies.Purger == nil {
		return nil, errPurgerMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := dependencies.Reporter
	if reporter == nil {
		reporter = discardReporter{}
	}
	stepObserver := dependencies.StepObserver
	if stepObserver == nil {
		stepObserver = noopStepObserver{}
	}

	return &Service{
		logger:           logger,
		session:          dependencies.Session,
		purger:           dependencies.Purger,
		reporter:         reporter,
		prompter:         dependencies.Prompter,
		stepObserver:     stepObserver,
		locationVerifier: LocationVerifier{},
	}, nil
}

// Execute performs the migration. The returned error is a *StepError naming the failed step. A location mismatch
// at the end is reported in the result, not as an error.
func (service *Service) Execute(executionContext context.Context, options MigrationOptions) (MigrationResult, error) {
	run := &migrationRun{
		service: service,
		options: options,
		logger:  service.logger.With(zap.String(logFieldRunIdentifierConstant, options.RunIdentifier)),
	}
	result, runError := run.execute(executionContext)
	result.CompletedSteps = append([]Step{}, run.completed...)
	if runError != nil {
		var stepError *StepError
		if errors.As(runError, &stepError) {
			service.reporter.ReportFailure(result.Request, stepError)
			run.logger.Error(
				logMessageMigrationFailedConstant,
				zap.String(logFieldTableConstant, result.Request.Table().String()),
				zap.String(logFieldStepConstant, stepError.Step.Title()),
				zap.String(logFieldCompletedStepsConstant, stepError.CompletedStepTitles()),
				zap.Error(stepError.Cause),
			)
		}
		return result, runError
	}
	return result, nil
}

type migrationRun struct {
	service   *Service
	options   MigrationOptions
	logger    *zap.Logger
	completed []Step
}

func (run *migrationRun) execute(executionContext context.Context) (MigrationResult, error) {
	service := run.service
	var result MigrationResult

	if stepError := run.perform(StepResolveParameters, ErrInvalidParameter, func() error {
		request, requestError := ResolveRequest(run.options.Parameters)
		if requestError != nil {
			return requestError
		}
		result.Request = request
		return nil
	}); stepError != nil {
		return result, stepError
	}
	request := result.Request

	run.logger.Info(
		logMessageMigrationStartedConstant,
		zap.String(logFieldTableConstant, request.Table().String()),
		zap.String(logFieldNewLocationConstant, request.NewLocation()),
		zap.Bool(logFieldManagedConstant, request.Managed()),
		zap.Bool(logFieldDryRunConstant, run.options.DryRun),
	)

	if stepError := run.perform(StepDescribeSource, ErrDescribeFailed, func() error {
		detail, describeError := service.session.DescribeDetail(executionContext, request.Table())
		if describeError != nil {
			return describeError
		}
		if locationsOverlap(detail.Location, request.NewLocation()) {
			return fmt.Errorf(overlappingLocationTemplateConstant, ErrInvalidParameter, request.NewLocation(), detail.Location, request.Table())
		}
		result.SourceDetail = detail
		service.reporter.ReportSource(request, detail)
		run.warnOnManagedMismatch(request, detail)
		return nil
	}); stepError != nil {
		return result, stepError
	}

	if stepError := run.perform(StepCloneTable, ErrCloneFailed, func() error {
		return service.session.CloneTable(executionContext, request.Table(), request.NewLocation())
	}); stepError != nil {
		return result, stepError
	}

	originalSource := catalog.TableSource(request.Table())
	clonedSource := catalog.PathSource(catalog.DeltaFormat, request.NewLocation())

	if stepError := run.perform(StepLoadTables, ErrCloneFailed, func() error {
		if _, originalError := service.session.PreviewRows(executionContext, originalSource, accessibilityCheckRowLimitConstant); originalError != nil {
			return originalError
		}
		_, clonedError := service.session.PreviewRows(executionContext, clonedSource, accessibilityCheckRowLimitConstant)
		return clonedError
	}); stepError != nil {
		return result, stepError
	}

	if stepError := run.perform(StepCompareContents, ErrVerificationFailed, func() error {
		return run.compare(executionContext, originalSource, clonedSource, &result)
	}); stepError != nil {
		return result, stepError
	}

	if run.options.DryRun {
		for step := StepDropTable; step <= StepVerifyLocation; step++ {
			service.stepObserver.StepSkipped(step.Number(), step.Title(), dryRunSkipReasonConstant)
		}
		result.DryRun = true
		service.reporter.ReportDryRun(request)
		return result, nil
	}

	if stepError := run.perform(StepDropTable, ErrDropFailed, func() error {
		if confirmationError := run.confirmDrop(executionContext, request); confirmationError != nil {
			return confirmationError
		}
		return service.session.DropTable(executionContext, request.Table())
	}); stepError != nil {
		return result, stepError
	}

	if request.Managed() {
		service.stepObserver.StepSkipped(StepPurgeFiles.Number(), StepPurgeFiles.Title(), managedSkipReasonConstant)
	} else if stepError := run.perform(StepPurgeFiles, ErrPurgeFailed, func() error {
		report, purgeError := service.purger.Purge(executionContext, result.SourceDetail.Location)
		if purgeError != nil {
			return purgeError
		}
		result.Purged = true
		result.PurgeReport = report
		service.reporter.ReportPurge(report)
		return nil
	}); stepError != nil {
		return result, stepError
	}

	if stepError := run.perform(StepRegisterTable, ErrRegisterFailed, func() error {
		return service.session.CreateTable(executionContext, request.Table(), catalog.DeltaFormat, request.NewLocation())
	}); stepError != nil {
		return result, stepError
	}

	if stepError := run.perform(StepQueryTable, ErrRegisterFailed, func() error {
		preview, previewError := service.session.PreviewRows(executionContext, originalSource, run.options.SampleRows)
		if previewError != nil {
			return previewError
		}
		result.Preview = preview
		service.reporter.ReportPreview(request, preview)
		return nil
	}); stepError != nil {
		return result, stepError
	}

	if stepError := run.perform(StepVerifyLocation, ErrRegisterFailed, func() error {
		detail, describeError := service.session.DescribeDetail(executionContext, request.Table())
		if describeError != nil {
			return describeError
		}
		result.LocationStatus = service.locationVerifier.Verify(detail, request.NewLocation())
		service.reporter.ReportLocation(request, result.LocationStatus)
		if !result.LocationStatus.Matched {
			run.logger.Warn(
				logMessageLocationMismatchConstant,
				zap.String(logFieldTableConstant, request.Table().String()),
				zap.String(logFieldActualLocationConstant, result.LocationStatus.Actual),
				zap.String(logFieldNewLocationConstant, result.LocationStatus.Expected),
			)
		}
		return nil
	}); stepError != nil {
		return result, stepError
	}

	run.logger.Info(
		logMessageMigrationCompletedConstant,
		zap.String(logFieldTableConstant, request.Table().String()),
		zap.String(logFieldNewLocationConstant, request.NewLocation()),
		zap.Bool(logFieldManagedConstant, request.Managed()),
	)
	return result, nil
}

func (run *migrationRun) compare(executionContext context.Context, originalSource catalog.RowSource, clonedSource catalog.RowSource, result *MigrationResult) error {
	session := run.service.session

	missingFromClone, missingError := session.CompareRows(executionContext, originalSource, clonedSource, run.options.SampleRows)
	if missingError != nil {
		return missingError
	}
	run.service.reporter.ReportDifference(missingFromClone)
	result.MissingFromClone = missingFromClone

	extraInClone, extraError := session.CompareRows(executionContext, clonedSource, originalSource, run.options.SampleRows)
	if extraError != nil {
		return extraError
	}
	run.service.reporter.ReportDifference(extraInClone)
	result.ExtraInClone = extraInClone

	if result.ContentsMatch() {
		return nil
	}

	run.logger.Warn(
		logMessageDifferenceFoundConstant,
		zap.String(logFieldTableConstant, result.Request.Table().String()),
		zap.Int64(logFieldMissingFromCloneConstant, missingFromClone.Count),
		zap.Int64(logFieldExtraInCloneConstant, extraInClone.Count),
	)
	if !run.options.Strict {
		return nil
	}
	if !missingFromClone.Empty() {
		return fmt.Errorf(differenceFoundTemplateConstant, ErrVerificationFailed, missingFromClone.Count, missingFromClone.Left, missingFromClone.Right)
	}
	return fmt.Errorf(differenceFoundTemplateConstant, ErrVerificationFailed, extraInClone.Count, extraInClone.Left, extraInClone.Right)
}

func (run *migrationRun) confirmDrop(executionContext context.Context, request MigrationRequest) error {
	if run.options.AssumeYes {
		return nil
	}
	prompter := run.service.prompter
	if prompter == nil {
		prompter = assumeYesPrompter{}
	}
	confirmed, promptError := prompter.Confirm(executionContext, confirmationPrompt(request))
	if promptError != nil {
		return promptError
	}
	if !confirmed {
		return fmt.Errorf(operatorDeclinedTemplateConstant, ErrAborted, request.Table())
	}
	return nil
}

func (run *migrationRun) warnOnManagedMismatch(request MigrationRequest, detail catalog.TableDetail) {
	if len(detail.TableType) == 0 || detail.Managed == request.Managed() {
		return
	}
	run.logger.Warn(
		logMessageManagedMismatchConstant,
		zap.String(logFieldTableConstant, request.Table().String()),
		zap.Bool(logFieldManagedConstant, request.Managed()),
		zap.String(logFieldTableTypeConstant, detail.TableType),
		zap.String(logFieldSourceLocationConstant, detail.Location),
	)
}

// perform runs one step and converts its failure into a *StepError carrying the steps completed so far.
func (run *migrationRun) perform(step Step, defaultKind error, action func() error) error {
	observer := run.service.stepObserver
	observer.StepStarted(step.Number(), step.Title())
	startedAt := time.Now()

	actionError := action()
	if actionError == nil {
		observer.StepCompleted(step.Number(), step.Title(), time.Since(startedAt))
		run.completed = append(run.completed, step)
		return nil
	}

	observer.StepFailed(step.Number(), step.Title(), actionError)
	return &StepError{
		Step:           step,
		Kind:           classifyFailure(step, defaultKind, actionError),
		Cause:          actionError,
		CompletedSteps: append([]Step{}, run.completed...),
	}
}

var explicitFailureKinds = []error{ErrInvalidParameter, ErrVerificationFailed, ErrAborted}

func classifyFailure(step Step, defaultKind error, failure error) error {
	for _, kind := range explicitFailureKinds {
		if errors.Is(failure, kind) {
			return kind
		}
	}
	if step == StepDescribeSource && errors.Is(failure, catalog.ErrTableNotFound) {
		return ErrTableNotFound
	}
	return defaultKind
}

type noopStepObserver struct{}

func (noopStepObserver) StepStarted(int, string)                  {}
func (noopStepObserver) StepCompleted(int, string, time.Duration) {}
func (noopStepObserver) StepSkipped(int, string, string)          {}
func (noopStepObserver) StepFailed(int, string, error)            {}
