package storage

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const (
	gcsListErrorTemplate   = "failed to list gs://%s/%s: %w"
	gcsDeleteErrorTemplate = "failed to delete gs://%s/%s: %w"
)

// gcsBucketHandle abstracts a GCS bucket handle for testability.
type gcsBucketHandle interface {
	Objects(executionContext context.Context, query *storage.Query) gcsObjectIterator
	Object(name string) gcsObjectHandle
}

type gcsObjectIterator interface {
	Next() (*storage.ObjectAttrs, error)
}

type gcsObjectHandle interface {
	Delete(executionContext context.Context) error
}

type gcsBucketOpener func(bucketName string) gcsBucketHandle

type clientBucketHandle struct{ bucketHandle *storage.BucketHandle }

func (handle clientBucketHandle) Objects(executionContext context.Context, query *storage.Query) gcsObjectIterator {
	return handle.bucketHandle.Objects(executionContext, query)
}

func (handle clientBucketHandle) Object(name string) gcsObjectHandle {
	return handle.bucketHandle.Object(name)
}

// GCSPurger deletes every object under a gs:// prefix.
type GCSPurger struct {
	openBucket gcsBucketOpener
}

// NewGCSPurger constructs a purger over a Cloud Storage client.
func NewGCSPurger(client *storage.Client) *GCSPurger {
	return &GCSPurger{openBucket: func(bucketName string) gcsBucketHandle {
		return clientBucketHandle{bucketHandle: client.Bucket(bucketName)}
	}}
}

// Purge iterates the prefix and deletes each object.
func (purger *GCSPurger) Purge(executionContext context.Context, location string) (PurgeReport, error) {
	objectLocation, parseError := ParseObjectLocation(location)
	if parseError != nil {
		return PurgeReport{}, parseError
	}

	report := PurgeReport{Location: location}
	bucket := purger.openBucket(objectLocation.Bucket)
	objectIterator := bucket.Objects(executionContext, &storage.Query{Prefix: objectLocation.Prefix})
	for {
		attributes, nextError := objectIterator.Next()
		if errors.Is(nextError, iterator.Done) {
			return report, nil
		}
		if nextError != nil {
			return report, fmt.Errorf(gcsListErrorTemplate, objectLocation.Bucket, objectLocation.Prefix, nextError)
		}
		if deleteError := bucket.Object(attributes.Name).Delete(executionContext); deleteError != nil && !errors.Is(deleteError, storage.ErrObjectNotExist) {
			return report, fmt.Errorf(gcsDeleteErrorTemplate, objectLocation.Bucket, attributes.Name, deleteError)
		}
		report.ObjectsDeleted++
	}
}
