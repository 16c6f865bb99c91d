package migrate

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/temirov/lakemove/internal/catalog"
	"github.com/temirov/lakemove/internal/storage"
	"github.com/temirov/lakemove/internal/utils"
)

const (
	sourceMovingTemplateConstant       = "%s LOCATED AT %s IS MOVING %s\n"
	differenceNoneTemplateConstant     = "Rows in %s missing from %s: none\n"
	differenceCountTemplateConstant    = "Rows in %s missing from %s: %d\n"
	differenceSampleTemplateConstant   = "Showing %d of %d rows\n"
	previewTemplateConstant            = "Preview of %s (%d rows)\n"
	purgeCountTemplateConstant         = "Removed %d objects under %s\n"
	purgeUnknownCountTemplateConstant  = "Removed %s\n"
	locationMatchedTemplateConstant    = "The new table location matched the target.\nThe migration process is complete for %s\n"
	locationMismatchMessageConstant    = "The new table location does not match the target.\n"
	locationNewTemplateConstant        = "New Table Location: %s\n"
	locationTargetTemplateConstant     = "Target Table Location: %s\n"
	lineTemplateConstant               = "%s\n"
	dryRunTemplateConstant             = "Dry run complete for %s. The original table is untouched and the clone at %s was left in place.\n"
	failureTemplateConstant            = "Migration of %s stopped at step %d/%d (%s): %s\n"
	completedStepsTemplateConstant     = "Completed steps: %s\n"
	confirmationPromptTemplateConstant = "Drop %s and continue the migration to %s?"
	unresolvedTableLabelConstant       = "the requested table"
)

// Reporter renders migration outcomes for the operator.
type Reporter interface {
	ReportSource(request MigrationRequest, detail catalog.TableDetail)
	ReportDifference(difference catalog.RowDifference)
	ReportPreview(request MigrationRequest, sample catalog.RowSample)
	ReportPurge(report storage.PurgeReport)
	ReportLocation(request MigrationRequest, status LocationStatus)
	ReportDryRun(request MigrationRequest)
	ReportFailure(request MigrationRequest, failure *StepError)
}

// ConsoleReporter writes plain text and row tables to a writer.
type ConsoleReporter struct {
	writer io.Writer
}

// NewConsoleReporter wraps the writer so that every report is flushed as soon as it is written.
func NewConsoleReporter(writer io.Writer) *ConsoleReporter {
	return &ConsoleReporter{writer: utils.NewFlushingWriter(writer)}
}

// ReportSource announces the table, its current location and its destination.
func (reporter *ConsoleReporter) ReportSource(request MigrationRequest, detail catalog.TableDetail) {
	reporter.printf(sourceMovingTemplateConstant, request.Table().Table, detail.Location, request.NewLocation())
}

// ReportDifference prints the count of rows present on the left and absent on the right, with a sample.
func (reporter *ConsoleReporter) ReportDifference(difference catalog.RowDifference) {
	if difference.Empty() {
		reporter.printf(differenceNoneTemplateConstant, difference.Left, difference.Right)
		return
	}
	reporter.printf(differenceCountTemplateConstant, difference.Left, difference.Right, difference.Count)
	reporter.renderRows(difference.Sample)
	if int64(len(difference.Sample.Rows)) < difference.Count {
		reporter.printf(differenceSampleTemplateConstant, len(difference.Sample.Rows), difference.Count)
	}
}

// ReportPreview prints rows read back from the re-registered table.
func (reporter *ConsoleReporter) ReportPreview(request MigrationRequest, sample catalog.RowSample) {
	reporter.printf(previewTemplateConstant, request.Table(), len(sample.Rows))
	reporter.renderRows(sample)
}

// ReportPurge prints what a purge removed.
func (reporter *ConsoleReporter) ReportPurge(report storage.PurgeReport) {
	if report.ObjectsDeleted < 0 {
		reporter.printf(purgeUnknownCountTemplateConstant, report.Location)
		return
	}
	reporter.printf(purgeCountTemplateConstant, report.ObjectsDeleted, report.Location)
}

// ReportLocation prints the final location check and, on mismatch, both locations and the remediation hint.
func (reporter *ConsoleReporter) ReportLocation(request MigrationRequest, status LocationStatus) {
	if status.Matched {
		reporter.printf(locationMatchedTemplateConstant, request.Table().Table)
		return
	}
	reporter.printf(locationMismatchMessageConstant)
	reporter.printf(locationNewTemplateConstant, status.Actual)
	reporter.printf(locationTargetTemplateConstant, status.Expected)
	reporter.printf(lineTemplateConstant, status.Remediation)
}

// ReportDryRun explains what a dry run left behind.
func (reporter *ConsoleReporter) ReportDryRun(request MigrationRequest) {
	reporter.printf(dryRunTemplateConstant, request.Table(), request.NewLocation())
}

// ReportFailure names the failed step and the steps that completed before it.
func (reporter *ConsoleReporter) ReportFailure(request MigrationRequest, failure *StepError) {
	if failure == nil {
		return
	}
	reporter.printf(failureTemplateConstant, tableLabel(request), failure.Step.Number(), TotalSteps, failure.Step.Title(), failure.Error())
	reporter.printf(completedStepsTemplateConstant, failure.CompletedStepTitles())
}

func (reporter *ConsoleReporter) renderRows(sample catalog.RowSample) {
	if len(sample.Columns) == 0 || len(sample.Rows) == 0 {
		return
	}
	tableWriter := table.NewWriter()
	tableWriter.SetOutputMirror(reporter.writer)
	header := make(table.Row, len(sample.Columns))
	for columnIndex, columnName := range sample.Columns {
		header[columnIndex] = columnName
	}
	tableWriter.AppendHeader(header)
	for _, rowValues := range sample.Rows {
		row := make(table.Row, len(rowValues))
		for valueIndex, value := range rowValues {
			row[valueIndex] = value
		}
		tableWriter.AppendRow(row)
	}
	tableWriter.Render()
}

func (reporter *ConsoleReporter) printf(template string, arguments ...any) {
	if reporter == nil || reporter.writer == nil {
		return
	}
	_, _ = fmt.Fprintf(reporter.writer, template, arguments...)
}

func tableLabel(request MigrationRequest) string {
	if len(request.Table().Table) == 0 {
		return unresolvedTableLabelConstant
	}
	return request.Table().String()
}

func confirmationPrompt(request MigrationRequest) string {
	return fmt.Sprintf(confirmationPromptTemplateConstant, request.Table(), request.NewLocation())
}

type discardReporter struct{}

func (discardReporter) ReportSource(MigrationRequest, catalog.TableDetail) {}
func (discardReporter) ReportDifference(catalog.RowDifference)             {}
func (discardReporter) ReportPreview(MigrationRequest, catalog.RowSample)  {}
func (discardReporter) ReportPurge(storage.PurgeReport)                    {}
func (discardReporter) ReportLocation(MigrationRequest, LocationStatus)    {}
func (discardReporter) ReportDryRun(MigrationRequest)                      {}
func (discardReporter) ReportFailure(MigrationRequest, *StepError)         {}
