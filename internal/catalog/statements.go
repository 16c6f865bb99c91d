package catalog

import (
	"fmt"
	"strings"
)

// StatementKind classifies statements for observers and logs.
type StatementKind string

// Statement kinds issued by the session.
const (
	StatementKindDescribeDetail   StatementKind = "describe_detail"
	StatementKindDescribeExtended StatementKind = "describe_extended"
	StatementKindClone            StatementKind = "clone"
	StatementKindExceptAllCount   StatementKind = "except_all_count"
	StatementKindExceptAllSample  StatementKind = "except_all_sample"
	StatementKindPreview          StatementKind = "preview"
	StatementKindDropTable        StatementKind = "drop_table"
	StatementKindCreateTable      StatementKind = "create_table"
)

const (
	describeDetailTemplateConstant   = "DESCRIBE DETAIL %s"
	describeExtendedTemplateConstant = "DESCRIBE TABLE EXTENDED %s"
	cloneTemplateConstant            = "CREATE OR REPLACE TABLE %s CLONE %s"
	exceptAllTemplateConstant        = "SELECT * FROM %s EXCEPT ALL SELECT * FROM %s"
	exceptAllCountTemplateConstant   = "SELECT COUNT(*) AS difference_count FROM (%s) AS difference"
	limitTemplateConstant            = "%s LIMIT %d"
	previewTemplateConstant          = "SELECT * FROM %s LIMIT %d"
	dropTableTemplateConstant        = "DROP TABLE %s"
	createTableTemplateConstant      = "CREATE TABLE %s USING %s LOCATION %s"
	negativeLimitTemplateConstant    = "row limit must not be negative, got %d"
)

// Statement is a fully rendered SQL statement.
type Statement struct {
	Kind StatementKind
	Text string
}

// DescribeDetailStatement reads the detail row of a Delta table.
func DescribeDetailStatement(identifier TableIdentifier) (Statement, error) {
	if validationError := identifier.Validate(); validationError != nil {
		return Statement{}, validationError
	}
	return Statement{Kind: StatementKindDescribeDetail, Text: fmt.Sprintf(describeDetailTemplateConstant, identifier.QuotedName())}, nil
}

// DescribeExtendedStatement reads the extended metadata rows, including the table type.
func DescribeExtendedStatement(identifier TableIdentifier) (Statement, error) {
	if validationError := identifier.Validate(); validationError != nil {
		return Statement{}, validationError
	}
	return Statement{Kind: StatementKindDescribeExtended, Text: fmt.Sprintf(describeExtendedTemplateConstant, identifier.QuotedName())}, nil
}

// CloneStatement copies the current snapshot of source into a Delta table at destination. History is not copied.
func CloneStatement(source TableIdentifier, destination string) (Statement, error) {
	if validationError := source.Validate(); validationError != nil {
		return Statement{}, validationError
	}
	destinationRelation, relationError := PathSource(defaultTableFormatConstant, destination).relation()
	if relationError != nil {
		return Statement{}, relationError
	}
	return Statement{Kind: StatementKindClone, Text: fmt.Sprintf(cloneTemplateConstant, destinationRelation, source.QuotedName())}, nil
}

// ExceptAllCountStatement counts rows present in left and absent from right, honoring duplicates.
func ExceptAllCountStatement(left RowSource, right RowSource) (Statement, error) {
	exceptAllQuery, queryError := buildExceptAll(left, right)
	if queryError != nil {
		return Statement{}, queryError
	}
	return Statement{Kind: StatementKindExceptAllCount, Text: fmt.Sprintf(exceptAllCountTemplateConstant, exceptAllQuery)}, nil
}

// ExceptAllSampleStatement selects up to limit rows present in left and absent from right.
func ExceptAllSampleStatement(left RowSource, right RowSource, limit int) (Statement, error) {
	if limit < 0 {
		return Statement{}, fmt.Errorf(negativeLimitTemplateConstant, limit)
	}
	exceptAllQuery, queryError := buildExceptAll(left, right)
	if queryError != nil {
		return Statement{}, queryError
	}
	return Statement{Kind: StatementKindExceptAllSample, Text: fmt.Sprintf(limitTemplateConstant, exceptAllQuery, limit)}, nil
}

// SelectPreviewStatement selects up to limit rows from the source.
func SelectPreviewStatement(source RowSource, limit int) (Statement, error) {
	if limit < 0 {
		return Statement{}, fmt.Errorf(negativeLimitTemplateConstant, limit)
	}
	relation, relationError := source.relation()
	if relationError != nil {
		return Statement{}, relationError
	}
	return Statement{Kind: StatementKindPreview, Text: fmt.Sprintf(previewTemplateConstant, relation, limit)}, nil
}

// DropTableStatement removes a table registration.
func DropTableStatement(identifier TableIdentifier) (Statement, error) {
	if validationError := identifier.Validate(); validationError != nil {
		return Statement{}, validationError
	}
	return Statement{Kind: StatementKindDropTable, Text: fmt.Sprintf(dropTableTemplateConstant, identifier.QuotedName())}, nil
}

// CreateTableStatement registers a table over existing files at location.
func CreateTableStatement(identifier TableIdentifier, format string, location string) (Statement, error) {
	if validationError := identifier.Validate(); validationError != nil {
		return Statement{}, validationError
	}
	normalizedFormat, formatError := NormalizeFormat(format)
	if formatError != nil {
		return Statement{}, formatError
	}
	if locationError := ValidateLocation(location); locationError != nil {
		return Statement{}, locationError
	}
	statementText := fmt.Sprintf(createTableTemplateConstant, identifier.QuotedName(), strings.ToUpper(normalizedFormat), QuoteStringLiteral(location))
	return Statement{Kind: StatementKindCreateTable, Text: statementText}, nil
}

func buildExceptAll(left RowSource, right RowSource) (string, error) {
	leftRelation, leftError := left.relation()
	if leftError != nil {
		return "", leftError
	}
	rightRelation, rightError := right.relation()
	if rightError != nil {
		return "", rightError
	}
	return fmt.Sprintf(exceptAllTemplateConstant, leftRelation, rightRelation), nil
}
