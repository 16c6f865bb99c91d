package migrate

import "strings"

const (
	defaultSampleRowCountConstant = 20
	maximumSampleRowCountConstant = 1000
	configurationKeySeparator     = "."
	configurationManagedKey       = "managed"
	configurationStrictKey        = "strict"
	configurationSampleRowsKey    = "sample_rows"
	configurationAssumeYesKey     = "assume_yes"
	configurationDryRunKey        = "dry_run"
)

// CommandConfiguration captures persisted configuration for table migration.
type CommandConfiguration struct {
	ExternalURL string `mapstructure:"external_url"`
	Table       string `mapstructure:"table"`
	Database    string `mapstructure:"database"`
	Catalog     string `mapstructure:"catalog"`
	Managed     bool   `mapstructure:"managed"`
	Strict      bool   `mapstructure:"strict"`
	SampleRows  int    `mapstructure:"sample_rows"`
	AssumeYes   bool   `mapstructure:"assume_yes"`
	DryRun      bool   `mapstructure:"dry_run"`
	PlanPath    string `mapstructure:"plan"`
}

// DefaultCommandConfiguration returns baseline configuration values for table migration.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Managed:    true,
		SampleRows: defaultSampleRowCountConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for table migration under the provided root key.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparator + configurationManagedKey:    defaults.Managed,
		rootKey + configurationKeySeparator + configurationStrictKey:     defaults.Strict,
		rootKey + configurationKeySeparator + configurationSampleRowsKey: defaults.SampleRows,
		rootKey + configurationKeySeparator + configurationAssumeYesKey:  defaults.AssumeYes,
		rootKey + configurationKeySeparator + configurationDryRunKey:     defaults.DryRun,
	}
}

// Sanitize trims textual values and clamps the sample size. The external URL is only trimmed of surrounding
// whitespace because the new location is its literal concatenation with the table name.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.ExternalURL = strings.TrimSpace(configuration.ExternalURL)
	sanitized.Table = strings.TrimSpace(configuration.Table)
	sanitized.Database = strings.TrimSpace(configuration.Database)
	sanitized.Catalog = strings.TrimSpace(configuration.Catalog)
	sanitized.PlanPath = strings.TrimSpace(configuration.PlanPath)
	sanitized.SampleRows = clampSampleRows(configuration.SampleRows)
	return sanitized
}

func clampSampleRows(requested int) int {
	switch {
	case requested <= 0:
		return defaultSampleRowCountConstant
	case requested > maximumSampleRowCountConstant:
		return maximumSampleRowCountConstant
	default:
		return requested
	}
}
