package migrate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/lakemove/internal/catalog"
	migrate "github.com/temirov/lakemove/internal/migrate"
)

func TestLocationVerifier(testInstance *testing.T) {
	testCases := []struct {
		name            string
		reported        string
		expected        string
		expectMatched   bool
		expectedHintSub string
	}{
		{
			name:          "exact_match",
			reported:      "abfss://c@s.dfs.core.windows.net/gold/sales",
			expected:      "abfss://c@s.dfs.core.windows.net/gold/sales",
			expectMatched: true,
		},
		{
			name:            "trailing_slash_is_a_mismatch",
			reported:        "abfss://c@s.dfs.core.windows.net/gold/sales/",
			expected:        "abfss://c@s.dfs.core.windows.net/gold/sales",
			expectedHintSub: "Register table at new location",
		},
		{
			name:            "scheme_case_is_a_mismatch",
			reported:        "S3://lake/gold/sales",
			expected:        "s3://lake/gold/sales",
			expectedHintSub: "Try running",
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(subtest *testing.T) {
			status := migrate.LocationVerifier{}.Verify(catalog.TableDetail{Location: testCase.reported}, testCase.expected)

			require.Equal(subtest, testCase.expectMatched, status.Matched)
			require.Equal(subtest, testCase.reported, status.Actual)
			require.Equal(subtest, testCase.expected, status.Expected)
			if testCase.expectMatched {
				require.Empty(subtest, status.Remediation)
				return
			}
			require.Contains(subtest, status.Remediation, testCase.expectedHintSub)
		})
	}
}
