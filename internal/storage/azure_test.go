package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAzureBlobClient struct {
	blobNames      []string
	listFailure    error
	deleteFailure  error
	listedPrefixes []string
	deletedBlobs   []string
}

func (client *fakeAzureBlobClient) ListBlobNames(_ context.Context, containerName string, prefix string) ([]string, error) {
	client.listedPrefixes = append(client.listedPrefixes, containerName+"|"+prefix)
	if client.listFailure != nil {
		return nil, client.listFailure
	}
	return append([]string{}, client.blobNames...), nil
}

func (client *fakeAzureBlobClient) DeleteBlob(_ context.Context, containerName string, blobName string) error {
	if client.deleteFailure != nil {
		return client.deleteFailure
	}
	client.deletedBlobs = append(client.deletedBlobs, containerName+"|"+blobName)
	return nil
}

func TestAzurePurgerDeletesDeepestBlobsFirst(testInstance *testing.T) {
	client := &fakeAzureBlobClient{blobNames: []string{
		"gold/sales/_delta_log",
		"gold/sales/_delta_log/00000.json",
		"gold/sales/part-0.parquet",
	}}
	var requestedAccounts []string
	purger := NewAzurePurger(func(accountName string) (AzureBlobAPI, error) {
		requestedAccounts = append(requestedAccounts, accountName)
		return client, nil
	})

	report, purgeError := purger.Purge(context.Background(), "abfss://c@s.dfs.core.windows.net/gold/sales")
	require.NoError(testInstance, purgeError)
	require.Equal(testInstance, 3, report.ObjectsDeleted)
	require.Equal(testInstance, []string{"c|gold/sales/"}, client.listedPrefixes)
	require.Equal(testInstance, []string{
		"c|gold/sales/_delta_log/00000.json",
		"c|gold/sales/_delta_log",
		"c|gold/sales/part-0.parquet",
	}, client.deletedBlobs)

	_, secondError := purger.Purge(context.Background(), "wasbs://c@s.blob.core.windows.net/gold/orders")
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, []string{"s"}, requestedAccounts)
}

func TestAzurePurgerSurfacesFailures(testInstance *testing.T) {
	clientFailure := errors.New("no managed identity")
	_, factoryError := NewAzurePurger(func(string) (AzureBlobAPI, error) { return nil, clientFailure }).
		Purge(context.Background(), "abfss://c@s.dfs.core.windows.net/gold/sales")
	require.ErrorIs(testInstance, factoryError, clientFailure)

	listFailure := errors.New("AuthorizationPermissionMismatch")
	_, listError := NewAzurePurger(func(string) (AzureBlobAPI, error) { return &fakeAzureBlobClient{listFailure: listFailure}, nil }).
		Purge(context.Background(), "abfss://c@s.dfs.core.windows.net/gold/sales")
	require.ErrorIs(testInstance, listError, listFailure)

	deleteFailure := errors.New("lease present")
	_, deleteError := NewAzurePurger(func(string) (AzureBlobAPI, error) {
		return &fakeAzureBlobClient{blobNames: []string{"gold/sales/a"}, deleteFailure: deleteFailure}, nil
	}).Purge(context.Background(), "abfss://c@s.dfs.core.windows.net/gold/sales")
	require.ErrorIs(testInstance, deleteError, deleteFailure)
}
