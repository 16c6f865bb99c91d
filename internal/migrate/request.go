package migrate

import (
	"fmt"
	"strings"

	"github.com/temirov/lakemove/internal/catalog"
)

const (
	externalURLFieldNameConstant  = "external_url"
	tableNameFieldNameConstant    = "table_name"
	databaseNameFieldNameConstant = "db_name"
	requiredValueMessageConstant  = "value required"
	newLocationTemplateConstant   = "%s%s"
)

// InvalidInputError describes migration parameter validation failures.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", inputError.FieldName, inputError.Message)
}

// Is classifies every input failure as ErrInvalidParameter.
func (inputError InvalidInputError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// RequestParameters are the raw operator inputs for a single table.
type RequestParameters struct {
	ExternalURL string
	Table       string
	Database    string
	Catalog     string
	Managed     bool
}

// MigrationRequest is the validated, immutable description of one table move.
type MigrationRequest struct {
	targetBaseURL string
	table         catalog.TableIdentifier
	newLocation   string
	managed       bool
}

// ResolveRequest validates the parameters and derives the new location by appending the table name to the
// external URL exactly as given.
func ResolveRequest(parameters RequestParameters) (MigrationRequest, error) {
	externalURL := strings.TrimSpace(parameters.ExternalURL)
	tableName := strings.TrimSpace(parameters.Table)
	databaseName := strings.TrimSpace(parameters.Database)

	if len(tableName) == 0 {
		return MigrationRequest{}, InvalidInputError{FieldName: tableNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(databaseName) == 0 {
		return MigrationRequest{}, InvalidInputError{FieldName: databaseNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(externalURL) == 0 {
		return MigrationRequest{}, InvalidInputError{FieldName: externalURLFieldNameConstant, Message: requiredValueMessageConstant}
	}

	newLocation := fmt.Sprintf(newLocationTemplateConstant, externalURL, tableName)
	if locationError := catalog.ValidateLocation(newLocation); locationError != nil {
		return MigrationRequest{}, InvalidInputError{FieldName: externalURLFieldNameConstant, Message: locationError.Error()}
	}

	return MigrationRequest{
		targetBaseURL: externalURL,
		table: catalog.TableIdentifier{
			Catalog:  strings.TrimSpace(parameters.Catalog),
			Database: databaseName,
			Table:    tableName,
		},
		newLocation: newLocation,
		managed:     parameters.Managed,
	}, nil
}

// TargetBaseURL returns the external URL the request was built from.
func (request MigrationRequest) TargetBaseURL() string {
	return request.targetBaseURL
}

// Table returns the identifier of the table being moved.
func (request MigrationRequest) Table() catalog.TableIdentifier {
	return request.table
}

// NewLocation returns the location the table will be registered at.
func (request MigrationRequest) NewLocation() string {
	return request.newLocation
}

// Managed reports whether the platform owns the original data files.
func (request MigrationRequest) Managed() bool {
	return request.managed
}
