package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	s3ListErrorTemplate         = "failed to list s3://%s/%s: %w"
	s3DeleteErrorTemplate       = "failed to delete objects under s3://%s/%s: %w"
	s3DeleteObjectErrorTemplate = "failed to delete s3://%s/%s: %s %s"
	s3DeleteBatchLimit          = 1000
)

// S3API is the subset of the S3 client used for purging.
type S3API interface {
	ListObjectsV2(executionContext context.Context, input *s3.ListObjectsV2Input, optionFunctions ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(executionContext context.Context, input *s3.DeleteObjectsInput, optionFunctions ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Purger deletes every object under an s3, s3a or s3n prefix.
type S3Purger struct {
	client S3API
}

// NewS3Purger constructs a purger over an S3 client.
func NewS3Purger(client S3API) *S3Purger {
	return &S3Purger{client: client}
}

// Purge lists the prefix page by page and deletes each page in batches.
func (purger *S3Purger) Purge(executionContext context.Context, location string) (PurgeReport, error) {
	objectLocation, parseError := ParseObjectLocation(location)
	if parseError != nil {
		return PurgeReport{}, parseError
	}

	report := PurgeReport{Location: location}
	paginator := s3.NewListObjectsV2Paginator(purger.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(objectLocation.Bucket),
		Prefix: aws.String(objectLocation.Prefix),
	})
	for paginator.HasMorePages() {
		page, pageError := paginator.NextPage(executionContext)
		if pageError != nil {
			return report, fmt.Errorf(s3ListErrorTemplate, objectLocation.Bucket, objectLocation.Prefix, pageError)
		}

		identifiers := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, object := range page.Contents {
			identifiers = append(identifiers, types.ObjectIdentifier{Key: object.Key})
		}
		for batchStart := 0; batchStart < len(identifiers); batchStart += s3DeleteBatchLimit {
			batchEnd := min(batchStart+s3DeleteBatchLimit, len(identifiers))
			deletedCount, deleteError := purger.deleteBatch(executionContext, objectLocation, identifiers[batchStart:batchEnd])
			report.ObjectsDeleted += deletedCount
			if deleteError != nil {
				return report, deleteError
			}
		}
	}
	return report, nil
}

func (purger *S3Purger) deleteBatch(executionContext context.Context, objectLocation ObjectLocation, identifiers []types.ObjectIdentifier) (int, error) {
	output, deleteError := purger.client.DeleteObjects(executionContext, &s3.DeleteObjectsInput{
		Bucket: aws.String(objectLocation.Bucket),
		Delete: &types.Delete{Objects: identifiers, Quiet: aws.Bool(true)},
	})
	if deleteError != nil {
		return 0, fmt.Errorf(s3DeleteErrorTemplate, objectLocation.Bucket, objectLocation.Prefix, deleteError)
	}
	if len(output.Errors) > 0 {
		firstFailure := output.Errors[0]
		return len(identifiers) - len(output.Errors), fmt.Errorf(s3DeleteObjectErrorTemplate, objectLocation.Bucket, aws.ToString(firstFailure.Key), aws.ToString(firstFailure.Code), aws.ToString(firstFailure.Message))
	}
	return len(identifiers), nil
}
