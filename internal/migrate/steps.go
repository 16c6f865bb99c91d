package migrate

// Step identifies one stage of the migration sequence.
type Step int

// Migration steps in execution order.
const (
	StepResolveParameters Step = iota + 1
	StepDescribeSource
	StepCloneTable
	StepLoadTables
	StepCompareContents
	StepDropTable
	StepPurgeFiles
	StepRegisterTable
	StepQueryTable
	StepVerifyLocation
)

// TotalSteps is the number of steps in a full migration.
const TotalSteps = int(StepVerifyLocation)

const unknownStepTitleConstant = "unknown step"

var stepTitles = map[Step]string{
	StepResolveParameters: "Resolve parameters",
	StepDescribeSource:    "Describe source table",
	StepCloneTable:        "Clone table to new location",
	StepLoadTables:        "Load original and cloned tables",
	StepCompareContents:   "Compare table contents",
	StepDropTable:         "Drop original table",
	StepPurgeFiles:        "Remove original data files",
	StepRegisterTable:     "Register table at new location",
	StepQueryTable:        "Query migrated table",
	StepVerifyLocation:    "Verify new table location",
}

// Number returns the one-based position of the step.
func (step Step) Number() int {
	return int(step)
}

// Title returns the console label of the step.
func (step Step) Title() string {
	title, known := stepTitles[step]
	if !known {
		return unknownStepTitleConstant
	}
	return title
}
