package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/lakemove/internal/utils/flags"
)

const (
	planPathRequiredMessageConstant  = "migration plan path must be provided"
	planEmptyTablesMessageConstant   = "migration plan must list at least one table"
	planLoadErrorTemplateConstant    = "failed to load migration plan: %w"
	planParseErrorTemplateConstant   = "failed to parse migration plan: %w"
	planToggleErrorTemplateConstant  = "line %d: %w"
	planEntryFailureTemplateConstant = "plan entry %d (%s): %w"
	planEntryTableMissingTemplate    = "plan entry %d is missing a table name"
	planEntryDisplayTemplateConstant = "%s.%s"
)

// Plan lists tables to migrate one after another with shared defaults.
type Plan struct {
	Defaults PlanDefaults `yaml:"defaults"`
	Tables   []PlanEntry  `yaml:"tables"`
}

// PlanDefaults apply to every entry that does not override them.
type PlanDefaults struct {
	ExternalURL string       `yaml:"external_url"`
	Database    string       `yaml:"database"`
	Catalog     string       `yaml:"catalog"`
	Managed     *ToggleValue `yaml:"managed"`
}

// PlanEntry describes one table of a plan.
type PlanEntry struct {
	Table       string       `yaml:"table"`
	ExternalURL string       `yaml:"external_url"`
	Database    string       `yaml:"database"`
	Catalog     string       `yaml:"catalog"`
	Managed     *ToggleValue `yaml:"managed"`
}

// ToggleValue decodes yes/no style YAML scalars into a boolean.
type ToggleValue bool

// UnmarshalYAML accepts the same literals as the --managed flag.
func (value *ToggleValue) UnmarshalYAML(node *yaml.Node) error {
	parsedValue, parseError := flags.ParseToggleValue(node.Value)
	if parseError != nil {
		return fmt.Errorf(planToggleErrorTemplateConstant, node.Line, parseError)
	}
	*value = ToggleValue(parsedValue)
	return nil
}

// LoadPlan reads and validates a plan file.
func LoadPlan(filePath string) (Plan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Plan{}, errors.New(planPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Plan{}, fmt.Errorf(planLoadErrorTemplateConstant, readError)
	}
	return ParsePlan(contentBytes)
}

// ParsePlan decodes a plan, rejecting unknown keys and entries without a table name.
func ParsePlan(contentBytes []byte) (Plan, error) {
	decoder := yaml.NewDecoder(strings.NewReader(string(contentBytes)))
	decoder.KnownFields(true)

	var plan Plan
	if decodeError := decoder.Decode(&plan); decodeError != nil {
		return Plan{}, fmt.Errorf(planParseErrorTemplateConstant, decodeError)
	}
	if len(plan.Tables) == 0 {
		return Plan{}, errors.New(planEmptyTablesMessageConstant)
	}
	for entryIndex, entry := range plan.Tables {
		if len(strings.TrimSpace(entry.Table)) == 0 {
			return Plan{}, fmt.Errorf(planEntryTableMissingTemplate, entryIndex+1)
		}
	}
	return plan, nil
}

// Parameters resolves each entry against the plan defaults and then the command configuration.
func (plan Plan) Parameters(configuration CommandConfiguration) []RequestParameters {
	parameters := make([]RequestParameters, 0, len(plan.Tables))
	for _, entry := range plan.Tables {
		managed := configuration.Managed
		if plan.Defaults.Managed != nil {
			managed = bool(*plan.Defaults.Managed)
		}
		if entry.Managed != nil {
			managed = bool(*entry.Managed)
		}
		parameters = append(parameters, RequestParameters{
			ExternalURL: firstNonEmpty(entry.ExternalURL, plan.Defaults.ExternalURL, configuration.ExternalURL),
			Table:       strings.TrimSpace(entry.Table),
			Database:    firstNonEmpty(entry.Database, plan.Defaults.Database, configuration.Database),
			Catalog:     firstNonEmpty(entry.Catalog, plan.Defaults.Catalog, configuration.Catalog),
			Managed:     managed,
		})
	}
	return parameters
}

// ExecutePlan migrates each entry in order and stops at the first failure, since a failed table needs manual
// inspection before anything else is moved.
func ExecutePlan(executionContext context.Context, executor MigrationExecutor, runs []MigrationOptions) ([]MigrationResult, error) {
	results := make([]MigrationResult, 0, len(runs))
	for runIndex, options := range runs {
		result, executionError := executor.Execute(executionContext, options)
		if executionError != nil {
			return results, fmt.Errorf(planEntryFailureTemplateConstant, runIndex+1, planEntryLabel(options.Parameters), executionError)
		}
		results = append(results, result)
	}
	return results, nil
}

func planEntryLabel(parameters RequestParameters) string {
	return fmt.Sprintf(planEntryDisplayTemplateConstant, strings.TrimSpace(parameters.Database), strings.TrimSpace(parameters.Table))
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if trimmedCandidate := strings.TrimSpace(candidate); len(trimmedCandidate) > 0 {
			return trimmedCandidate
		}
	}
	return ""
}
