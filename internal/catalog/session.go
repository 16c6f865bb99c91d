package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	detailLocationColumnConstant   = "location"
	detailFormatColumnConstant     = "format"
	detailNameColumnConstant       = "name"
	extendedTypeRowConstant        = "type"
	extendedDetailSectionConstant  = "# Detailed Table Information"
	managedTableTypeConstant       = "MANAGED"
	nullValueLabelConstant         = "NULL"
	emptyDetailTemplateConstant    = "%s returned no rows"
	missingDetailColumnTemplate    = "%s did not report a %s column"
	extendedMinimumColumnsConstant = 2
)

// Session is the set of warehouse operations a migration needs.
type Session interface {
	DescribeDetail(executionContext context.Context, identifier TableIdentifier) (TableDetail, error)
	CloneTable(executionContext context.Context, source TableIdentifier, destination string) error
	CompareRows(executionContext context.Context, left RowSource, right RowSource, sampleLimit int) (RowDifference, error)
	PreviewRows(executionContext context.Context, source RowSource, limit int) (RowSample, error)
	DropTable(executionContext context.Context, identifier TableIdentifier) error
	CreateTable(executionContext context.Context, identifier TableIdentifier, format string, location string) error
}

// TableDetail is the subset of DESCRIBE DETAIL and DESCRIBE TABLE EXTENDED output a migration relies on.
type TableDetail struct {
	Name      string
	Location  string
	Format    string
	TableType string
	Managed   bool
}

// RowSample is a bounded set of rows rendered as text.
type RowSample struct {
	Columns []string
	Rows    [][]string
}

// RowDifference reports the rows of one relation missing from another.
type RowDifference struct {
	Left   RowSource
	Right  RowSource
	Count  int64
	Sample RowSample
}

// Empty reports whether no rows differ.
func (difference RowDifference) Empty() bool {
	return difference.Count == 0
}

// QueryExecutor is the subset of *sql.DB used by SQLSession.
type QueryExecutor interface {
	QueryContext(executionContext context.Context, query string, arguments ...any) (*sql.Rows, error)
	ExecContext(executionContext context.Context, query string, arguments ...any) (sql.Result, error)
}

// SQLSession implements Session over database/sql.
type SQLSession struct {
	executor QueryExecutor
	observer StatementObserver
}

// NewSQLSession wraps an open database handle. A nil observer discards statement events.
func NewSQLSession(executor QueryExecutor, observer StatementObserver) *SQLSession {
	if observer == nil {
		observer = noopStatementObserver{}
	}
	return &SQLSession{executor: executor, observer: observer}
}

// DescribeDetail reads the location, format and name of a table, then its managed flag.
func (session *SQLSession) DescribeDetail(executionContext context.Context, identifier TableIdentifier) (TableDetail, error) {
	detailStatement, detailStatementError := DescribeDetailStatement(identifier)
	if detailStatementError != nil {
		return TableDetail{}, detailStatementError
	}
	detailRows, detailError := session.query(executionContext, detailStatement, 1)
	if detailError != nil {
		return TableDetail{}, detailError
	}
	if len(detailRows.Rows) == 0 {
		return TableDetail{}, fmt.Errorf(emptyDetailTemplateConstant, detailStatement.Text)
	}

	detailValues := rowByColumn(detailRows.Columns, detailRows.Rows[0])
	location, hasLocation := detailValues[detailLocationColumnConstant]
	if !hasLocation {
		return TableDetail{}, fmt.Errorf(missingDetailColumnTemplate, detailStatement.Text, detailLocationColumnConstant)
	}
	tableDetail := TableDetail{
		Name:     detailValues[detailNameColumnConstant],
		Location: location,
		Format:   detailValues[detailFormatColumnConstant],
	}

	extendedStatement, extendedStatementError := DescribeExtendedStatement(identifier)
	if extendedStatementError != nil {
		return TableDetail{}, extendedStatementError
	}
	extendedRows, extendedError := session.query(executionContext, extendedStatement, 0)
	if extendedError != nil {
		return TableDetail{}, extendedError
	}
	// Column rows come first and a column may itself be called "type".
	inDetailSection := false
	for _, extendedRow := range extendedRows.Rows {
		if len(extendedRow) < extendedMinimumColumnsConstant {
			continue
		}
		if !inDetailSection {
			inDetailSection = strings.EqualFold(strings.TrimSpace(extendedRow[0]), extendedDetailSectionConstant)
			continue
		}
		if strings.EqualFold(strings.TrimSpace(extendedRow[0]), extendedTypeRowConstant) {
			tableDetail.TableType = strings.ToUpper(strings.TrimSpace(extendedRow[1]))
			tableDetail.Managed = tableDetail.TableType == managedTableTypeConstant
			break
		}
	}

	return tableDetail, nil
}

// CloneTable creates or replaces a Delta table at destination holding a snapshot of source.
func (session *SQLSession) CloneTable(executionContext context.Context, source TableIdentifier, destination string) error {
	statement, statementError := CloneStatement(source, destination)
	if statementError != nil {
		return statementError
	}
	return session.exec(executionContext, statement)
}

// CompareRows counts rows of left missing from right and samples up to sampleLimit of them.
func (session *SQLSession) CompareRows(executionContext context.Context, left RowSource, right RowSource, sampleLimit int) (RowDifference, error) {
	countStatement, countStatementError := ExceptAllCountStatement(left, right)
	if countStatementError != nil {
		return RowDifference{}, countStatementError
	}

	difference := RowDifference{Left: left, Right: right}
	if countError := session.queryCount(executionContext, countStatement, &difference.Count); countError != nil {
		return RowDifference{}, countError
	}
	if difference.Empty() || sampleLimit <= 0 {
		return difference, nil
	}

	sampleStatement, sampleStatementError := ExceptAllSampleStatement(left, right, sampleLimit)
	if sampleStatementError != nil {
		return RowDifference{}, sampleStatementError
	}
	sample, sampleError := session.query(executionContext, sampleStatement, sampleLimit)
	if sampleError != nil {
		return RowDifference{}, sampleError
	}
	difference.Sample = sample
	return difference, nil
}

// PreviewRows selects up to limit rows from source.
func (session *SQLSession) PreviewRows(executionContext context.Context, source RowSource, limit int) (RowSample, error) {
	statement, statementError := SelectPreviewStatement(source, limit)
	if statementError != nil {
		return RowSample{}, statementError
	}
	return session.query(executionContext, statement, limit)
}

// DropTable removes the table registration.
func (session *SQLSession) DropTable(executionContext context.Context, identifier TableIdentifier) error {
	statement, statementError := DropTableStatement(identifier)
	if statementError != nil {
		return statementError
	}
	return session.exec(executionContext, statement)
}

// CreateTable registers identifier over the files at location.
func (session *SQLSession) CreateTable(executionContext context.Context, identifier TableIdentifier, format string, location string) error {
	statement, statementError := CreateTableStatement(identifier, format, location)
	if statementError != nil {
		return statementError
	}
	return session.exec(executionContext, statement)
}

func (session *SQLSession) exec(executionContext context.Context, statement Statement) error {
	startedAt := time.Now()
	session.observer.StatementStarted(statement)
	if _, execError := session.executor.ExecContext(executionContext, statement.Text); execError != nil {
		return session.fail(statement, execError)
	}
	session.observer.StatementCompleted(statement, time.Since(startedAt))
	return nil
}

func (session *SQLSession) queryCount(executionContext context.Context, statement Statement, target *int64) error {
	startedAt := time.Now()
	session.observer.StatementStarted(statement)
	rows, queryError := session.executor.QueryContext(executionContext, statement.Text)
	if queryError != nil {
		return session.fail(statement, queryError)
	}
	defer rows.Close()

	if !rows.Next() {
		if iterationError := rows.Err(); iterationError != nil {
			return session.fail(statement, iterationError)
		}
		return session.fail(statement, fmt.Errorf(emptyDetailTemplateConstant, statement.Text))
	}
	if scanError := rows.Scan(target); scanError != nil {
		return session.fail(statement, scanError)
	}
	session.observer.StatementCompleted(statement, time.Since(startedAt))
	return nil
}

// query reads up to limit rows as text; a limit of zero reads every row.
func (session *SQLSession) query(executionContext context.Context, statement Statement, limit int) (RowSample, error) {
	startedAt := time.Now()
	session.observer.StatementStarted(statement)
	rows, queryError := session.executor.QueryContext(executionContext, statement.Text)
	if queryError != nil {
		return RowSample{}, session.fail(statement, queryError)
	}
	defer rows.Close()

	sample, readError := readRowsAsText(rows, limit)
	if readError != nil {
		return RowSample{}, session.fail(statement, readError)
	}
	session.observer.StatementCompleted(statement, time.Since(startedAt))
	return sample, nil
}

func (session *SQLSession) fail(statement Statement, cause error) error {
	session.observer.StatementFailed(statement, cause)
	return wrapStatementError(statement, cause)
}

func readRowsAsText(rows *sql.Rows, limit int) (RowSample, error) {
	columns, columnsError := rows.Columns()
	if columnsError != nil {
		return RowSample{}, columnsError
	}

	sample := RowSample{Columns: columns}
	for rows.Next() {
		if limit > 0 && len(sample.Rows) >= limit {
			break
		}
		values := make([]any, len(columns))
		destinations := make([]any, len(columns))
		for index := range values {
			destinations[index] = &values[index]
		}
		if scanError := rows.Scan(destinations...); scanError != nil {
			return RowSample{}, scanError
		}
		textRow := make([]string, len(values))
		for index, value := range values {
			textRow[index] = formatValue(value)
		}
		sample.Rows = append(sample.Rows, textRow)
	}
	if iterationError := rows.Err(); iterationError != nil && !errors.Is(iterationError, sql.ErrNoRows) {
		return RowSample{}, iterationError
	}
	return sample, nil
}

func formatValue(value any) string {
	switch typedValue := value.(type) {
	case nil:
		return nullValueLabelConstant
	case []byte:
		return string(typedValue)
	case string:
		return typedValue
	case time.Time:
		return typedValue.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(typedValue)
	}
}

func rowByColumn(columns []string, row []string) map[string]string {
	values := make(map[string]string, len(columns))
	for index, column := range columns {
		if index >= len(row) {
			break
		}
		values[strings.ToLower(column)] = row[index]
	}
	return values
}
