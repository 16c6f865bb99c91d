package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// DeltaFormat is the format every clone is written in.
const DeltaFormat = "delta"

const (
	identifierQuoteConstant            = "`"
	escapedIdentifierQuoteConstant     = "``"
	identifierSeparatorConstant        = "."
	stringLiteralQuoteConstant         = "'"
	escapedStringLiteralQuoteConstant  = "\\'"
	backslashConstant                  = "\\"
	escapedBackslashConstant           = "\\\\"
	defaultTableFormatConstant         = DeltaFormat
	emptyIdentifierTemplateConstant    = "%s name must not be empty"
	locationParseErrorTemplateConstant = "location %q is not a valid URI: %w"
	locationControlTemplateConstant    = "location %q contains control characters"
	formatInvalidTemplateConstant      = "table format %q must contain only letters, digits and underscores"
	catalogPartLabelConstant           = "catalog"
	databasePartLabelConstant          = "database"
	tablePartLabelConstant             = "table"
)

// ErrEmptyLocation indicates that a storage location was blank.
var ErrEmptyLocation = errors.New("location must not be empty")

// TableIdentifier names a table by database and table, optionally inside a catalog.
type TableIdentifier struct {
	Catalog  string
	Database string
	Table    string
}

// Validate reports whether the required identifier parts are present.
func (identifier TableIdentifier) Validate() error {
	if len(strings.TrimSpace(identifier.Database)) == 0 {
		return fmt.Errorf(emptyIdentifierTemplateConstant, databasePartLabelConstant)
	}
	if len(strings.TrimSpace(identifier.Table)) == 0 {
		return fmt.Errorf(emptyIdentifierTemplateConstant, tablePartLabelConstant)
	}
	return nil
}

// QuotedName renders the fully qualified, backtick-quoted name.
func (identifier TableIdentifier) QuotedName() string {
	quotedParts := make([]string, 0, 3)
	for _, part := range identifier.parts() {
		quotedParts = append(quotedParts, QuoteIdentifier(part))
	}
	return strings.Join(quotedParts, identifierSeparatorConstant)
}

// String renders the unquoted dotted name for display.
func (identifier TableIdentifier) String() string {
	return strings.Join(identifier.parts(), identifierSeparatorConstant)
}

func (identifier TableIdentifier) parts() []string {
	parts := make([]string, 0, 3)
	if trimmedCatalog := strings.TrimSpace(identifier.Catalog); len(trimmedCatalog) > 0 {
		parts = append(parts, trimmedCatalog)
	}
	return append(parts, strings.TrimSpace(identifier.Database), strings.TrimSpace(identifier.Table))
}

// QuoteIdentifier wraps a name in backticks, doubling embedded backticks.
func QuoteIdentifier(name string) string {
	return identifierQuoteConstant + strings.ReplaceAll(name, identifierQuoteConstant, escapedIdentifierQuoteConstant) + identifierQuoteConstant
}

// QuoteStringLiteral wraps a value in single quotes, escaping backslashes and quotes.
func QuoteStringLiteral(value string) string {
	escapedValue := strings.ReplaceAll(value, backslashConstant, escapedBackslashConstant)
	escapedValue = strings.ReplaceAll(escapedValue, stringLiteralQuoteConstant, escapedStringLiteralQuoteConstant)
	return stringLiteralQuoteConstant + escapedValue + stringLiteralQuoteConstant
}

// ValidateLocation checks that a storage location is a non-empty URI or path without control characters.
func ValidateLocation(location string) error {
	if len(strings.TrimSpace(location)) == 0 {
		return ErrEmptyLocation
	}
	if strings.ContainsFunc(location, unicode.IsControl) {
		return fmt.Errorf(locationControlTemplateConstant, location)
	}
	if _, parseError := url.Parse(location); parseError != nil {
		return fmt.Errorf(locationParseErrorTemplateConstant, location, parseError)
	}
	return nil
}

// NormalizeFormat lowercases a storage format name, defaulting to delta, and rejects anything that is not a bare word.
func NormalizeFormat(format string) (string, error) {
	trimmedFormat := strings.ToLower(strings.TrimSpace(format))
	if len(trimmedFormat) == 0 {
		return defaultTableFormatConstant, nil
	}
	for _, character := range trimmedFormat {
		if character != '_' && !unicode.IsLetter(character) && !unicode.IsDigit(character) {
			return "", fmt.Errorf(formatInvalidTemplateConstant, format)
		}
	}
	return trimmedFormat, nil
}
