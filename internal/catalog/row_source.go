package catalog

import "fmt"

const pathRelationTemplateConstant = "%s.%s"

// RowSource is a queryable relation, either a registered table or a storage path read with a table format.
type RowSource struct {
	table    TableIdentifier
	format   string
	location string
	byPath   bool
}

// TableSource references a registered table by name.
func TableSource(identifier TableIdentifier) RowSource {
	return RowSource{table: identifier}
}

// PathSource references the files at location read as the given format.
func PathSource(format string, location string) RowSource {
	return RowSource{format: format, location: location, byPath: true}
}

// String describes the source for console output.
func (source RowSource) String() string {
	if source.byPath {
		return source.location
	}
	return source.table.String()
}

// Format reports the format a path source is read with; it is empty for registered tables.
func (source RowSource) Format() string {
	return source.format
}

func (source RowSource) relation() (string, error) {
	if !source.byPath {
		if validationError := source.table.Validate(); validationError != nil {
			return "", validationError
		}
		return source.table.QuotedName(), nil
	}

	normalizedFormat, formatError := NormalizeFormat(source.format)
	if formatError != nil {
		return "", formatError
	}
	if locationError := ValidateLocation(source.location); locationError != nil {
		return "", locationError
	}
	return fmt.Sprintf(pathRelationTemplateConstant, normalizedFormat, QuoteIdentifier(source.location)), nil
}
