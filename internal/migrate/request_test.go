package migrate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	migrate "github.com/temirov/lakemove/internal/migrate"
)

func TestResolveRequest(testInstance *testing.T) {
	testCases := []struct {
		name                string
		parameters          migrate.RequestParameters
		expectedNewLocation string
		expectedTable       string
		expectedField       string
	}{
		{
			name: "appends_table_to_base_with_trailing_slash",
			parameters: migrate.RequestParameters{
				ExternalURL: "abfss://c@s.dfs.core.windows.net/gold/",
				Table:       "sales",
				Database:    "prod",
				Managed:     true,
			},
			expectedNewLocation: "abfss://c@s.dfs.core.windows.net/gold/sales",
			expectedTable:       "prod.sales",
		},
		{
			name: "inserts_no_separator",
			parameters: migrate.RequestParameters{
				ExternalURL: "s3://lake/gold",
				Table:       "sales",
				Database:    "prod",
			},
			expectedNewLocation: "s3://lake/goldsales",
			expectedTable:       "prod.sales",
		},
		{
			name: "keeps_catalog",
			parameters: migrate.RequestParameters{
				ExternalURL: "gs://lake/silver/",
				Table:       "orders",
				Database:    "raw",
				Catalog:     "main",
			},
			expectedNewLocation: "gs://lake/silver/orders",
			expectedTable:       "main.raw.orders",
		},
		{
			name:          "rejects_empty_table",
			parameters:    migrate.RequestParameters{ExternalURL: "s3://lake/", Database: "prod"},
			expectedField: "table_name",
		},
		{
			name:          "rejects_blank_database",
			parameters:    migrate.RequestParameters{ExternalURL: "s3://lake/", Table: "sales", Database: "   "},
			expectedField: "db_name",
		},
		{
			name:          "rejects_empty_external_url",
			parameters:    migrate.RequestParameters{Table: "sales", Database: "prod"},
			expectedField: "external_url",
		},
		{
			name:          "rejects_control_characters",
			parameters:    migrate.RequestParameters{ExternalURL: "s3://lake/\x00/", Table: "sales", Database: "prod"},
			expectedField: "external_url",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			request, requestError := migrate.ResolveRequest(testCase.parameters)
			if len(testCase.expectedField) > 0 {
				require.ErrorIs(subtest, requestError, migrate.ErrInvalidParameter)
				var inputError migrate.InvalidInputError
				require.ErrorAs(subtest, requestError, &inputError)
				require.Equal(subtest, testCase.expectedField, inputError.FieldName)
				return
			}

			require.NoError(subtest, requestError)
			require.Equal(subtest, testCase.expectedNewLocation, request.NewLocation())
			require.Equal(subtest, testCase.expectedTable, request.Table().String())
			require.Equal(subtest, testCase.parameters.ExternalURL, request.TargetBaseURL())
			require.Equal(subtest, testCase.parameters.Managed, request.Managed())
		})
	}
}
