package storage

import (
	"context"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"
)

// Settings configures every storage backend the default router can reach.
type Settings struct {
	AWSRegion          string
	S3Endpoint         string
	GCSCredentialsFile string
	AzureAccountKey    string
	DatabricksCLI      DatabricksCLISettings
	LocalRoot          string
}

// NewDefaultRouter registers lazily constructed purgers for every supported scheme.
func NewDefaultRouter(settings Settings, executor CommandExecutor) *Router {
	router := NewRouter()
	router.Register(func(executionContext context.Context) (Purger, error) {
		client, clientError := newS3Client(executionContext, settings)
		if clientError != nil {
			return nil, clientError
		}
		return NewS3Purger(client), nil
	}, S3Schemes...)
	router.Register(func(executionContext context.Context) (Purger, error) {
		client, clientError := newGCSClient(executionContext, settings)
		if clientError != nil {
			return nil, clientError
		}
		return NewGCSPurger(client), nil
	}, GCSSchemes...)
	router.Register(func(context.Context) (Purger, error) {
		return NewAzurePurger(NewAzureClientFactory(settings.AzureAccountKey)), nil
	}, AzureSchemes...)
	router.Register(func(context.Context) (Purger, error) {
		return NewDatabricksCLIPurger(executor, settings.DatabricksCLI), nil
	}, DBFSSchemes...)
	router.Register(func(context.Context) (Purger, error) {
		return NewLocalPurger(settings.LocalRoot), nil
	}, LocalSchemes...)
	return router
}

func newS3Client(executionContext context.Context, settings Settings) (*s3.Client, error) {
	loadOptions := make([]func(*awsconfig.LoadOptions) error, 0, 1)
	if region := strings.TrimSpace(settings.AWSRegion); len(region) > 0 {
		loadOptions = append(loadOptions, awsconfig.WithRegion(region))
	}
	awsConfiguration, loadError := awsconfig.LoadDefaultConfig(executionContext, loadOptions...)
	if loadError != nil {
		return nil, loadError
	}

	endpoint := strings.TrimSpace(settings.S3Endpoint)
	return s3.NewFromConfig(awsConfiguration, func(options *s3.Options) {
		if len(endpoint) > 0 {
			options.BaseEndpoint = aws.String(endpoint)
			options.UsePathStyle = true
		}
	}), nil
}

func newGCSClient(executionContext context.Context, settings Settings) (*storage.Client, error) {
	clientOptions := make([]option.ClientOption, 0, 1)
	if credentialsFile := strings.TrimSpace(settings.GCSCredentialsFile); len(credentialsFile) > 0 {
		clientOptions = append(clientOptions, option.WithAuthCredentialsFile(option.ServiceAccount, credentialsFile))
	}
	return storage.NewClient(executionContext, clientOptions...)
}
