package migrate_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	migrate "github.com/temirov/lakemove/internal/migrate"
	"github.com/temirov/lakemove/internal/migrate/testsupport"
)

const planDocumentConstant = `
defaults:
  external_url: abfss://c@s.dfs.core.windows.net/gold/
  database: prod
  managed: No
tables:
  - table: sales
  - table: orders
    managed: yes
  - table: customers
    database: crm
    catalog: main
    external_url: s3://lake/silver/
`

func TestParsePlanResolvesParameters(testInstance *testing.T) {
	plan, parseError := migrate.ParsePlan([]byte(planDocumentConstant))
	require.NoError(testInstance, parseError)

	parameters := plan.Parameters(migrate.CommandConfiguration{Managed: true, Catalog: "hive_metastore"})
	require.Equal(testInstance, []migrate.RequestParameters{
		{ExternalURL: "abfss://c@s.dfs.core.windows.net/gold/", Table: "sales", Database: "prod", Catalog: "hive_metastore", Managed: false},
		{ExternalURL: "abfss://c@s.dfs.core.windows.net/gold/", Table: "orders", Database: "prod", Catalog: "hive_metastore", Managed: true},
		{ExternalURL: "s3://lake/silver/", Table: "customers", Database: "crm", Catalog: "main", Managed: false},
	}, parameters)
}

func TestParsePlanFallsBackToConfiguration(testInstance *testing.T) {
	plan, parseError := migrate.ParsePlan([]byte("tables:\n  - table: sales\n"))
	require.NoError(testInstance, parseError)

	parameters := plan.Parameters(migrate.CommandConfiguration{ExternalURL: "gs://lake/", Database: "prod", Managed: true})
	require.Equal(testInstance, []migrate.RequestParameters{
		{ExternalURL: "gs://lake/", Table: "sales", Database: "prod", Managed: true},
	}, parameters)
}

func TestParsePlanRejectsInvalidDocuments(testInstance *testing.T) {
	testCases := []struct {
		name            string
		document        string
		expectedMessage string
	}{
		{name: "no_tables", document: "defaults:\n  database: prod\n", expectedMessage: "at least one table"},
		{name: "entry_without_table", document: "tables:\n  - database: prod\n", expectedMessage: "plan entry 1 is missing a table name"},
		{name: "unknown_key", document: "tables:\n  - table: sales\n    location: s3://x\n", expectedMessage: "failed to parse migration plan"},
		{name: "invalid_toggle", document: "tables:\n  - table: sales\n    managed: sometimes\n", expectedMessage: "expected yes or no"},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			_, parseError := migrate.ParsePlan([]byte(testCase.document))
			require.Error(subtest, parseError)
			require.Contains(subtest, parseError.Error(), testCase.expectedMessage)
		})
	}
}

func TestLoadPlanReadsFile(testInstance *testing.T) {
	planPath := filepath.Join(testInstance.TempDir(), "plan.yaml")
	require.NoError(testInstance, os.WriteFile(planPath, []byte(planDocumentConstant), 0o600))

	plan, loadError := migrate.LoadPlan(planPath)
	require.NoError(testInstance, loadError)
	require.Len(testInstance, plan.Tables, 3)

	_, missingError := migrate.LoadPlan(filepath.Join(testInstance.TempDir(), "missing.yaml"))
	require.ErrorIs(testInstance, missingError, os.ErrNotExist)

	_, emptyPathError := migrate.LoadPlan("  ")
	require.Error(testInstance, emptyPathError)
}

func TestExecutePlanStopsAtFirstFailure(testInstance *testing.T) {
	cloneFailure := &migrate.StepError{Step: migrate.StepCloneTable, Kind: migrate.ErrCloneFailed, Cause: errors.New(clonePermissionMessageConstant)}
	service := &testsupport.ServiceStub{Outcomes: map[string]testsupport.ServiceOutcome{
		"orders": {Error: cloneFailure},
	}}

	runs := []migrate.MigrationOptions{
		{Parameters: migrate.RequestParameters{Table: "sales", Database: "prod"}},
		{Parameters: migrate.RequestParameters{Table: "orders", Database: "prod"}},
		{Parameters: migrate.RequestParameters{Table: "customers", Database: "prod"}},
	}
	results, executionError := migrate.ExecutePlan(context.Background(), service, runs)

	require.ErrorIs(testInstance, executionError, migrate.ErrCloneFailed)
	require.EqualError(testInstance, executionError, "plan entry 2 (prod.orders): "+clonePermissionMessageConstant)
	require.Len(testInstance, results, 1)
	require.Len(testInstance, service.ExecutedOptions, 2)
}
