package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

const (
	azureServiceURLTemplate     = "https://%s.blob.core.windows.net/"
	azureHostSeparatorConstant  = "."
	azureListErrorTemplate      = "failed to list %s/%s in account %s: %w"
	azureDeleteErrorTemplate    = "failed to delete %s/%s in account %s: %w"
	azureCredentialTemplate     = "unable to build credentials for account %s: %w"
	azureClientTemplate         = "unable to build blob client for account %s: %w"
	azureAccountMissingTemplate = "location %q does not name a storage account"
)

// AzureBlobAPI is the subset of blob operations used for purging one account.
type AzureBlobAPI interface {
	ListBlobNames(executionContext context.Context, containerName string, prefix string) ([]string, error)
	DeleteBlob(executionContext context.Context, containerName string, blobName string) error
}

// AzureClientFactory builds a blob client for a storage account name.
type AzureClientFactory func(accountName string) (AzureBlobAPI, error)

// AzurePurger deletes every blob under an abfss, abfs, wasbs or wasb prefix.
type AzurePurger struct {
	clientFactory AzureClientFactory
	clientMutex   sync.Mutex
	clients       map[string]AzureBlobAPI
}

// NewAzurePurger constructs a purger that creates one blob client per storage account.
func NewAzurePurger(clientFactory AzureClientFactory) *AzurePurger {
	return &AzurePurger{clientFactory: clientFactory, clients: map[string]AzureBlobAPI{}}
}

// Purge lists the prefix and deletes the deepest blobs first so hierarchical namespaces drop files before their
// directories.
func (purger *AzurePurger) Purge(executionContext context.Context, location string) (PurgeReport, error) {
	objectLocation, parseError := ParseObjectLocation(location)
	if parseError != nil {
		return PurgeReport{}, parseError
	}
	accountName, _, _ := strings.Cut(objectLocation.Authority, azureHostSeparatorConstant)
	if len(accountName) == 0 {
		return PurgeReport{}, fmt.Errorf(azureAccountMissingTemplate, location)
	}

	client, clientError := purger.client(accountName)
	if clientError != nil {
		return PurgeReport{}, clientError
	}

	blobNames, listError := client.ListBlobNames(executionContext, objectLocation.Bucket, objectLocation.Prefix)
	if listError != nil {
		return PurgeReport{}, fmt.Errorf(azureListErrorTemplate, objectLocation.Bucket, objectLocation.Prefix, accountName, listError)
	}
	sort.SliceStable(blobNames, func(left int, right int) bool {
		return strings.Count(blobNames[left], prefixSeparatorConstant) > strings.Count(blobNames[right], prefixSeparatorConstant)
	})

	report := PurgeReport{Location: location}
	for _, blobName := range blobNames {
		if deleteError := client.DeleteBlob(executionContext, objectLocation.Bucket, blobName); deleteError != nil {
			return report, fmt.Errorf(azureDeleteErrorTemplate, objectLocation.Bucket, blobName, accountName, deleteError)
		}
		report.ObjectsDeleted++
	}
	return report, nil
}

func (purger *AzurePurger) client(accountName string) (AzureBlobAPI, error) {
	purger.clientMutex.Lock()
	defer purger.clientMutex.Unlock()
	if existing, found := purger.clients[accountName]; found {
		return existing, nil
	}
	created, creationError := purger.clientFactory(accountName)
	if creationError != nil {
		return nil, creationError
	}
	purger.clients[accountName] = created
	return created, nil
}

// NewAzureClientFactory authenticates with a shared account key when one is given and with the default Azure
// credential chain otherwise.
func NewAzureClientFactory(accountKey string) AzureClientFactory {
	return func(accountName string) (AzureBlobAPI, error) {
		serviceURL := fmt.Sprintf(azureServiceURLTemplate, accountName)
		if len(strings.TrimSpace(accountKey)) > 0 {
			sharedKeyCredential, credentialError := azblob.NewSharedKeyCredential(accountName, strings.TrimSpace(accountKey))
			if credentialError != nil {
				return nil, fmt.Errorf(azureCredentialTemplate, accountName, credentialError)
			}
			client, clientError := azblob.NewClientWithSharedKeyCredential(serviceURL, sharedKeyCredential, nil)
			if clientError != nil {
				return nil, fmt.Errorf(azureClientTemplate, accountName, clientError)
			}
			return azureBlobClient{client: client}, nil
		}

		defaultCredential, credentialError := azidentity.NewDefaultAzureCredential(nil)
		if credentialError != nil {
			return nil, fmt.Errorf(azureCredentialTemplate, accountName, credentialError)
		}
		return newTokenBlobClient(serviceURL, accountName, defaultCredential)
	}
}

func newTokenBlobClient(serviceURL string, accountName string, credential azcore.TokenCredential) (AzureBlobAPI, error) {
	client, clientError := azblob.NewClient(serviceURL, credential, nil)
	if clientError != nil {
		return nil, fmt.Errorf(azureClientTemplate, accountName, clientError)
	}
	return azureBlobClient{client: client}, nil
}

type azureBlobClient struct {
	client *azblob.Client
}

func (adapter azureBlobClient) ListBlobNames(executionContext context.Context, containerName string, prefix string) ([]string, error) {
	pager := adapter.client.NewListBlobsFlatPager(containerName, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	blobNames := make([]string, 0)
	for pager.More() {
		page, pageError := pager.NextPage(executionContext)
		if pageError != nil {
			return nil, pageError
		}
		if page.Segment == nil {
			continue
		}
		for _, blobItem := range page.Segment.BlobItems {
			if blobItem == nil || blobItem.Name == nil {
				continue
			}
			blobNames = append(blobNames, *blobItem.Name)
		}
	}
	return blobNames, nil
}

func (adapter azureBlobClient) DeleteBlob(executionContext context.Context, containerName string, blobName string) error {
	_, deleteError := adapter.client.DeleteBlob(executionContext, containerName, blobName, nil)
	if deleteError != nil && bloberror.HasCode(deleteError, bloberror.BlobNotFound) {
		return nil
	}
	return deleteError
}
