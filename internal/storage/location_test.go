package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseObjectLocation(testInstance *testing.T) {
	testCases := []struct {
		name              string
		location          string
		expectedScheme    string
		expectedBucket    string
		expectedAuthority string
		expectedPrefix    string
		expectedError     error
	}{
		{name: "s3_without_slash", location: "s3://lake/bronze/sales", expectedScheme: "s3", expectedBucket: "lake", expectedAuthority: "lake", expectedPrefix: "bronze/sales/"},
		{name: "s3a_with_slash", location: "s3a://lake/bronze/sales/", expectedScheme: "s3a", expectedBucket: "lake", expectedAuthority: "lake", expectedPrefix: "bronze/sales/"},
		{name: "gcs", location: "gs://lake/gold/orders", expectedScheme: "gs", expectedBucket: "lake", expectedAuthority: "lake", expectedPrefix: "gold/orders/"},
		{
			name:              "abfss",
			location:          "abfss://c@s.dfs.core.windows.net/gold/sales",
			expectedScheme:    "abfss",
			expectedBucket:    "c",
			expectedAuthority: "s.dfs.core.windows.net",
			expectedPrefix:    "gold/sales/",
		},
		{name: "bucket_root", location: "s3://lake/", expectedError: ErrRootPurgeRefused},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			objectLocation, parseError := ParseObjectLocation(testCase.location)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, parseError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedScheme, objectLocation.Scheme)
			require.Equal(testInstance, testCase.expectedBucket, objectLocation.Bucket)
			require.Equal(testInstance, testCase.expectedAuthority, objectLocation.Authority)
			require.Equal(testInstance, testCase.expectedPrefix, objectLocation.Prefix)
		})
	}
}

func TestParseObjectLocationRequiresBucket(testInstance *testing.T) {
	_, parseError := ParseObjectLocation("s3:///only/path")
	require.Error(testInstance, parseError)
}

func TestNormalizePrefixKeepsSiblingsApart(testInstance *testing.T) {
	require.Equal(testInstance, "lake/sales/", NormalizePrefix("/lake/sales"))
	require.Equal(testInstance, "lake/sales/", NormalizePrefix("lake/sales//"))
	require.Empty(testInstance, NormalizePrefix("/"))
	require.NotContains(testInstance, "lake/sales_archive/part-0", NormalizePrefix("/lake/sales"))
}
