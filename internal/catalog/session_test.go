package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testDescribeDetailQuery   = "DESCRIBE DETAIL `prod`.`sales`"
	testDescribeExtendedQuery = "DESCRIBE TABLE EXTENDED `prod`.`sales`"
	testOldLocation           = "dbfs:/mnt/old/sales"
	testNewLocation           = "abfss://c@s.dfs.core.windows.net/gold/sales"
	testNotFoundMessage       = "[TABLE_OR_VIEW_NOT_FOUND] The table or view `prod`.`sales` cannot be found."
)

var testSalesTable = TableIdentifier{Database: "prod", Table: "sales"}

type recordingStatementObserver struct {
	events []string
}

func (statementObserver *recordingStatementObserver) StatementStarted(statement Statement) {
	statementObserver.events = append(statementObserver.events, "started:"+string(statement.Kind))
}

func (statementObserver *recordingStatementObserver) StatementCompleted(statement Statement, _ time.Duration) {
	statementObserver.events = append(statementObserver.events, "completed:"+string(statement.Kind))
}

func (statementObserver *recordingStatementObserver) StatementFailed(statement Statement, _ error) {
	statementObserver.events = append(statementObserver.events, "failed:"+string(statement.Kind))
}

func newMockSession(testInstance *testing.T, statementObserver StatementObserver) (*SQLSession, sqlmock.Sqlmock) {
	testInstance.Helper()
	database, mock, mockError := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(testInstance, mockError)
	testInstance.Cleanup(func() { _ = database.Close() })
	return NewSQLSession(database, statementObserver), mock
}

func expectDescribe(mock sqlmock.Sqlmock, location string, tableType string) {
	mock.ExpectQuery(testDescribeDetailQuery).WillReturnRows(
		sqlmock.NewRows([]string{"format", "id", "name", "description", "location", "numFiles"}).
			AddRow("delta", "8f1c", "spark_catalog.prod.sales", nil, location, int64(12)),
	)
	mock.ExpectQuery(testDescribeExtendedQuery).WillReturnRows(
		sqlmock.NewRows([]string{"col_name", "data_type", "comment"}).
			AddRow("id", "bigint", nil).
			AddRow("", "", "").
			AddRow("# Detailed Table Information", "", "").
			AddRow("Type", tableType, "").
			AddRow("Location", location, ""),
	)
}

func TestSQLSessionDescribeDetail(testInstance *testing.T) {
	testCases := []struct {
		name            string
		tableType       string
		expectedManaged bool
	}{
		{name: "managed", tableType: "MANAGED", expectedManaged: true},
		{name: "external", tableType: "EXTERNAL", expectedManaged: false},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			statementObserver := &recordingStatementObserver{}
			session, mock := newMockSession(testInstance, statementObserver)
			expectDescribe(mock, testOldLocation, testCase.tableType)

			detail, describeError := session.DescribeDetail(context.Background(), testSalesTable)
			require.NoError(testInstance, describeError)
			require.Equal(testInstance, TableDetail{
				Name:      "spark_catalog.prod.sales",
				Location:  testOldLocation,
				Format:    "delta",
				TableType: testCase.tableType,
				Managed:   testCase.expectedManaged,
			}, detail)
			require.Equal(testInstance, []string{
				"started:describe_detail", "completed:describe_detail",
				"started:describe_extended", "completed:describe_extended",
			}, statementObserver.events)
			require.NoError(testInstance, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLSessionDescribeDetailIgnoresColumnNamedType(testInstance *testing.T) {
	session, mock := newMockSession(testInstance, nil)
	mock.ExpectQuery(testDescribeDetailQuery).WillReturnRows(
		sqlmock.NewRows([]string{"format", "id", "name", "description", "location", "numFiles"}).
			AddRow("delta", "8f1c", "spark_catalog.prod.sales", nil, testOldLocation, int64(12)),
	)
	mock.ExpectQuery(testDescribeExtendedQuery).WillReturnRows(
		sqlmock.NewRows([]string{"col_name", "data_type", "comment"}).
			AddRow("id", "bigint", nil).
			AddRow("type", "string", nil).
			AddRow("", "", "").
			AddRow("# Detailed Table Information", "", "").
			AddRow("Type", "MANAGED", "").
			AddRow("Location", testOldLocation, ""),
	)

	detail, describeError := session.DescribeDetail(context.Background(), testSalesTable)
	require.NoError(testInstance, describeError)
	require.Equal(testInstance, "MANAGED", detail.TableType)
	require.True(testInstance, detail.Managed)
	require.NoError(testInstance, mock.ExpectationsWereMet())
}

func TestSQLSessionDescribeDetailIsIdempotent(testInstance *testing.T) {
	session, mock := newMockSession(testInstance, nil)
	expectDescribe(mock, testOldLocation, "EXTERNAL")
	expectDescribe(mock, testOldLocation, "EXTERNAL")

	firstDetail, firstError := session.DescribeDetail(context.Background(), testSalesTable)
	require.NoError(testInstance, firstError)
	secondDetail, secondError := session.DescribeDetail(context.Background(), testSalesTable)
	require.NoError(testInstance, secondError)

	require.Equal(testInstance, firstDetail.Location, secondDetail.Location)
	require.Equal(testInstance, firstDetail.Managed, secondDetail.Managed)
	require.NoError(testInstance, mock.ExpectationsWereMet())
}

func TestSQLSessionDescribeDetailClassifiesMissingTable(testInstance *testing.T) {
	statementObserver := &recordingStatementObserver{}
	session, mock := newMockSession(testInstance, statementObserver)
	mock.ExpectQuery(testDescribeDetailQuery).WillReturnError(errors.New(testNotFoundMessage))

	_, describeError := session.DescribeDetail(context.Background(), testSalesTable)
	require.Error(testInstance, describeError)
	require.ErrorIs(testInstance, describeError, ErrTableNotFound)
	require.Equal(testInstance, testNotFoundMessage, describeError.Error())
	require.Equal(testInstance, []string{"started:describe_detail", "failed:describe_detail"}, statementObserver.events)
	require.NoError(testInstance, mock.ExpectationsWereMet())
}

func TestSQLSessionDescribeDetailRejectsEmptyResult(testInstance *testing.T) {
	session, mock := newMockSession(testInstance, nil)
	mock.ExpectQuery(testDescribeDetailQuery).WillReturnRows(sqlmock.NewRows([]string{"location"}))

	_, describeError := session.DescribeDetail(context.Background(), testSalesTable)
	require.Error(testInstance, describeError)
	require.NotErrorIs(testInstance, describeError, ErrTableNotFound)
}

func TestSQLSessionExecStatements(testInstance *testing.T) {
	permissionError := errors.New("PERMISSION_DENIED: User does not have WRITE FILES on External Location")

	testCases := []struct {
		name          string
		expectedQuery string
		execError     error
		invoke        func(session *SQLSession) error
	}{
		{
			name:          "clone",
			expectedQuery: "CREATE OR REPLACE TABLE delta.`" + testNewLocation + "` CLONE `prod`.`sales`",
			invoke: func(session *SQLSession) error {
				return session.CloneTable(context.Background(), testSalesTable, testNewLocation)
			},
		},
		{
			name:          "clone_permission_error",
			expectedQuery: "CREATE OR REPLACE TABLE delta.`" + testNewLocation + "` CLONE `prod`.`sales`",
			execError:     permissionError,
			invoke: func(session *SQLSession) error {
				return session.CloneTable(context.Background(), testSalesTable, testNewLocation)
			},
		},
		{
			name:          "drop",
			expectedQuery: "DROP TABLE `prod`.`sales`",
			invoke: func(session *SQLSession) error {
				return session.DropTable(context.Background(), testSalesTable)
			},
		},
		{
			name:          "create",
			expectedQuery: "CREATE TABLE `prod`.`sales` USING DELTA LOCATION '" + testNewLocation + "'",
			invoke: func(session *SQLSession) error {
				return session.CreateTable(context.Background(), testSalesTable, "delta", testNewLocation)
			},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			session, mock := newMockSession(testInstance, nil)
			expectation := mock.ExpectExec(testCase.expectedQuery)
			if testCase.execError != nil {
				expectation.WillReturnError(testCase.execError)
			} else {
				expectation.WillReturnResult(sqlmock.NewResult(0, 0))
			}

			invokeError := testCase.invoke(session)
			if testCase.execError != nil {
				require.Error(testInstance, invokeError)
				require.ErrorIs(testInstance, invokeError, testCase.execError)
				require.Equal(testInstance, testCase.execError.Error(), invokeError.Error())
			} else {
				require.NoError(testInstance, invokeError)
			}
			require.NoError(testInstance, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLSessionCompareRows(testInstance *testing.T) {
	oldSource := TableSource(testSalesTable)
	newSource := PathSource("delta", testNewLocation)
	countQuery := "SELECT COUNT(*) AS difference_count FROM (SELECT * FROM `prod`.`sales` EXCEPT ALL SELECT * FROM delta.`" + testNewLocation + "`) AS difference"
	sampleQuery := "SELECT * FROM `prod`.`sales` EXCEPT ALL SELECT * FROM delta.`" + testNewLocation + "` LIMIT 2"

	testInstance.Run("0_exact_copy", func(testInstance *testing.T) {
		session, mock := newMockSession(testInstance, nil)
		mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"difference_count"}).AddRow(int64(0)))

		difference, compareError := session.CompareRows(context.Background(), oldSource, newSource, 2)
		require.NoError(testInstance, compareError)
		require.True(testInstance, difference.Empty())
		require.Empty(testInstance, difference.Sample.Rows)
		require.NoError(testInstance, mock.ExpectationsWereMet())
	})

	testInstance.Run("1_differences_sampled", func(testInstance *testing.T) {
		session, mock := newMockSession(testInstance, nil)
		mock.ExpectQuery(countQuery).WillReturnRows(sqlmock.NewRows([]string{"difference_count"}).AddRow(int64(3)))
		mock.ExpectQuery(sampleQuery).WillReturnRows(
			sqlmock.NewRows([]string{"id", "amount", "region"}).
				AddRow(int64(1), 9.5, nil).
				AddRow(int64(2), 10.25, []byte("emea")).
				AddRow(int64(3), 11.0, "apac"),
		)

		difference, compareError := session.CompareRows(context.Background(), oldSource, newSource, 2)
		require.NoError(testInstance, compareError)
		require.False(testInstance, difference.Empty())
		require.Equal(testInstance, int64(3), difference.Count)
		require.Equal(testInstance, []string{"id", "amount", "region"}, difference.Sample.Columns)
		require.Equal(testInstance, [][]string{{"1", "9.5", "NULL"}, {"2", "10.25", "emea"}}, difference.Sample.Rows)
		require.NoError(testInstance, mock.ExpectationsWereMet())
	})

	testInstance.Run("2_count_failure", func(testInstance *testing.T) {
		session, mock := newMockSession(testInstance, nil)
		mock.ExpectQuery(countQuery).WillReturnError(errors.New("warehouse stopped"))

		_, compareError := session.CompareRows(context.Background(), oldSource, newSource, 2)
		require.EqualError(testInstance, compareError, "warehouse stopped")
	})
}

func TestSQLSessionPreviewRows(testInstance *testing.T) {
	session, mock := newMockSession(testInstance, nil)
	mock.ExpectQuery("SELECT * FROM `prod`.`sales` LIMIT 1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	)

	sample, previewError := session.PreviewRows(context.Background(), TableSource(testSalesTable), 1)
	require.NoError(testInstance, previewError)
	require.Equal(testInstance, [][]string{{"7", "2024-03-01T12:00:00Z"}}, sample.Rows)
	require.NoError(testInstance, mock.ExpectationsWereMet())
}

func TestLoggingStatementObserverWritesDebugEntries(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	statementObserver := NewLoggingStatementObserver(zap.New(observerCore))
	statement := Statement{Kind: StatementKindDropTable, Text: "DROP TABLE `prod`.`sales`"}

	statementObserver.StatementStarted(statement)
	statementObserver.StatementCompleted(statement, time.Second)
	statementObserver.StatementFailed(statement, errors.New("locked"))

	entries := observedLogs.All()
	require.Len(testInstance, entries, 3)
	require.Equal(testInstance, "statement started", entries[0].Message)
	require.Equal(testInstance, "DROP TABLE `prod`.`sales`", entries[0].ContextMap()["statement"])
	require.Equal(testInstance, zap.WarnLevel, entries[2].Level)
}

func TestOpenDatabaseValidatesSettings(testInstance *testing.T) {
	testCases := []struct {
		name          string
		settings      ConnectionSettings
		expectedError error
	}{
		{name: "missing_host", settings: ConnectionSettings{HTTPPath: "/sql/1.0/warehouses/abc", AccessToken: "dapi"}, expectedError: ErrWarehouseHostMissing},
		{name: "missing_http_path", settings: ConnectionSettings{Host: "adb.azuredatabricks.net", AccessToken: "dapi"}, expectedError: ErrWarehouseHTTPPathMissing},
		{name: "missing_token", settings: ConnectionSettings{Host: "adb.azuredatabricks.net", HTTPPath: "/sql/1.0/warehouses/abc"}, expectedError: ErrWarehouseTokenMissing},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			database, openError := OpenDatabase(testCase.settings)
			require.Nil(testInstance, database)
			require.ErrorIs(testInstance, openError, testCase.expectedError)
		})
	}
}
