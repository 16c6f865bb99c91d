package catalog

import (
	"errors"
	"strings"
)

// ErrTableNotFound indicates that the warehouse could not resolve a table name.
var ErrTableNotFound = errors.New("table or view not found")

var tableNotFoundMarkers = []string{
	"table_or_view_not_found",
	"table or view not found",
}

// StatementError carries a failure raised while executing a statement. Its message is the warehouse message
// verbatim.
type StatementError struct {
	Statement Statement
	Cause     error
}

// Error returns the underlying message unchanged.
func (statementError *StatementError) Error() string {
	if statementError.Cause == nil {
		return string(statementError.Statement.Kind)
	}
	return statementError.Cause.Error()
}

// Unwrap exposes the driver error.
func (statementError *StatementError) Unwrap() error {
	return statementError.Cause
}

// Is reports ErrTableNotFound for driver messages naming a missing table.
func (statementError *StatementError) Is(target error) bool {
	return target == ErrTableNotFound && isTableNotFoundMessage(statementError.Cause)
}

func wrapStatementError(statement Statement, cause error) error {
	if cause == nil {
		return nil
	}
	return &StatementError{Statement: statement, Cause: cause}
}

func isTableNotFoundMessage(cause error) bool {
	if cause == nil {
		return false
	}
	normalizedMessage := strings.ToLower(cause.Error())
	for _, marker := range tableNotFoundMarkers {
		if strings.Contains(normalizedMessage, marker) {
			return true
		}
	}
	return false
}
