package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(testInstance *testing.T, path string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(testInstance, os.WriteFile(path, []byte("row"), 0o644))
}

func TestLocalPurgerRemovesDirectoryTree(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	tableDirectory := filepath.Join(rootDirectory, "sales")
	siblingDirectory := filepath.Join(rootDirectory, "sales_archive")
	writeTestFile(testInstance, filepath.Join(tableDirectory, "part-0.parquet"))
	writeTestFile(testInstance, filepath.Join(tableDirectory, "_delta_log", "00000.json"))
	writeTestFile(testInstance, filepath.Join(siblingDirectory, "part-0.parquet"))

	report, purgeError := NewLocalPurger(rootDirectory).Purge(context.Background(), "file://"+tableDirectory)
	require.NoError(testInstance, purgeError)
	require.Equal(testInstance, 2, report.ObjectsDeleted)
	require.NoDirExists(testInstance, tableDirectory)
	require.DirExists(testInstance, siblingDirectory)
}

func TestLocalPurgerToleratesMissingPath(testInstance *testing.T) {
	report, purgeError := NewLocalPurger("").Purge(context.Background(), filepath.Join(testInstance.TempDir(), "missing"))
	require.NoError(testInstance, purgeError)
	require.Zero(testInstance, report.ObjectsDeleted)
}

func TestLocalPurgerRefusesUnsafePaths(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()

	_, rootError := NewLocalPurger("").Purge(context.Background(), string(filepath.Separator))
	require.ErrorIs(testInstance, rootError, ErrRootPurgeRefused)

	_, outsideError := NewLocalPurger(rootDirectory).Purge(context.Background(), filepath.Join(rootDirectory, "..", "elsewhere"))
	require.Error(testInstance, outsideError)

	_, sameError := NewLocalPurger(rootDirectory).Purge(context.Background(), rootDirectory)
	require.Error(testInstance, sameError)
	require.DirExists(testInstance, rootDirectory)
}
