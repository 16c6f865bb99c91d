package catalog

import (
	"time"

	"go.uber.org/zap"
)

const (
	statementStartedLogMessageConstant   = "statement started"
	statementCompletedLogMessageConstant = "statement completed"
	statementFailedLogMessageConstant    = "statement failed"
	statementKindLogFieldConstant        = "statement_kind"
	statementTextLogFieldConstant        = "statement"
	statementElapsedLogFieldConstant     = "elapsed"
)

// StatementObserver receives lifecycle notifications for every statement a session issues.
type StatementObserver interface {
	StatementStarted(statement Statement)
	StatementCompleted(statement Statement, elapsed time.Duration)
	StatementFailed(statement Statement, failure error)
}

type noopStatementObserver struct{}

func (noopStatementObserver) StatementStarted(Statement)                  {}
func (noopStatementObserver) StatementCompleted(Statement, time.Duration) {}
func (noopStatementObserver) StatementFailed(Statement, error)            {}

// LoggingStatementObserver writes statement lifecycle events to a structured logger at debug level.
type LoggingStatementObserver struct {
	logger *zap.Logger
}

// NewLoggingStatementObserver constructs an observer backed by logger.
func NewLoggingStatementObserver(logger *zap.Logger) *LoggingStatementObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingStatementObserver{logger: logger}
}

// StatementStarted logs the statement text before execution.
func (observer *LoggingStatementObserver) StatementStarted(statement Statement) {
	observer.logger.Debug(statementStartedLogMessageConstant, zap.String(statementKindLogFieldConstant, string(statement.Kind)), zap.String(statementTextLogFieldConstant, statement.Text))
}

// StatementCompleted logs the elapsed time of a successful statement.
func (observer *LoggingStatementObserver) StatementCompleted(statement Statement, elapsed time.Duration) {
	observer.logger.Debug(statementCompletedLogMessageConstant, zap.String(statementKindLogFieldConstant, string(statement.Kind)), zap.Duration(statementElapsedLogFieldConstant, elapsed))
}

// StatementFailed logs the failing statement together with the warehouse error.
func (observer *LoggingStatementObserver) StatementFailed(statement Statement, failure error) {
	observer.logger.Warn(statementFailedLogMessageConstant, zap.String(statementKindLogFieldConstant, string(statement.Kind)), zap.String(statementTextLogFieldConstant, statement.Text), zap.Error(failure))
}
