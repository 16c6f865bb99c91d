package testsupport

import (
	"context"
	"fmt"

	"github.com/temirov/lakemove/internal/catalog"
	migrate "github.com/temirov/lakemove/internal/migrate"
	"github.com/temirov/lakemove/internal/storage"
)

// Session operation names recorded by SessionStub.
const (
	OperationDescribe = "describe"
	OperationClone    = "clone"
	OperationPreview  = "preview"
	OperationCompare  = "compare"
	OperationDrop     = "drop"
	OperationCreate   = "create"
	OperationPurge    = "purge"
)

// SessionStub simulates a warehouse holding a single table registration.
type SessionStub struct {
	Detail            catalog.TableDetail
	DescribeError     error
	CloneError        error
	PreviewError      error
	DropError         error
	CreateError       error
	RegisteredSuffix  string
	MissingFromClone  int64
	ExtraInClone      int64
	PreviewSample     catalog.RowSample
	Operations        *[]string
	ClonedDestination string
	CreatedFormat     string
	CreatedLocation   string
	Comparisons       [][2]string
	PreviewedSources  []catalog.RowSource
	dropped           bool
	registered        bool
}

// DescribeDetail returns the original detail before re-registration and the new location afterwards.
func (session *SessionStub) DescribeDetail(_ context.Context, identifier catalog.TableIdentifier) (catalog.TableDetail, error) {
	session.record(OperationDescribe)
	if session.DescribeError != nil {
		return catalog.TableDetail{}, session.DescribeError
	}
	if session.dropped && !session.registered {
		return catalog.TableDetail{}, fmt.Errorf("[TABLE_OR_VIEW_NOT_FOUND] The table or view %s cannot be found", identifier)
	}
	detail := session.Detail
	if session.registered {
		detail.Location = session.CreatedLocation + session.RegisteredSuffix
		detail.Managed = false
		detail.TableType = "EXTERNAL"
	}
	return detail, nil
}

// CloneTable records the destination.
func (session *SessionStub) CloneTable(_ context.Context, _ catalog.TableIdentifier, destination string) error {
	session.record(OperationClone)
	if session.CloneError != nil {
		return session.CloneError
	}
	session.ClonedDestination = destination
	return nil
}

// CompareRows reports the configured counts for each direction.
func (session *SessionStub) CompareRows(_ context.Context, left catalog.RowSource, right catalog.RowSource, _ int) (catalog.RowDifference, error) {
	session.record(OperationCompare)
	session.Comparisons = append(session.Comparisons, [2]string{left.String(), right.String()})
	count := session.MissingFromClone
	if len(session.Comparisons) > 1 {
		count = session.ExtraInClone
	}
	return catalog.RowDifference{Left: left, Right: right, Count: count}, nil
}

// PreviewRows returns the configured sample.
func (session *SessionStub) PreviewRows(_ context.Context, source catalog.RowSource, _ int) (catalog.RowSample, error) {
	session.record(OperationPreview)
	session.PreviewedSources = append(session.PreviewedSources, source)
	if session.PreviewError != nil {
		return catalog.RowSample{}, session.PreviewError
	}
	return session.PreviewSample, nil
}

// DropTable marks the table as dropped.
func (session *SessionStub) DropTable(_ context.Context, _ catalog.TableIdentifier) error {
	session.record(OperationDrop)
	if session.DropError != nil {
		return session.DropError
	}
	session.dropped = true
	return nil
}

// CreateTable records the registration.
func (session *SessionStub) CreateTable(_ context.Context, _ catalog.TableIdentifier, format string, location string) error {
	session.record(OperationCreate)
	if session.CreateError != nil {
		return session.CreateError
	}
	session.CreatedFormat = format
	session.CreatedLocation = location
	session.registered = true
	return nil
}

// Dropped reports whether DropTable succeeded.
func (session *SessionStub) Dropped() bool {
	return session.dropped
}

func (session *SessionStub) record(operation string) {
	if session.Operations != nil {
		*session.Operations = append(*session.Operations, operation)
	}
}

// PurgerStub records purged locations.
type PurgerStub struct {
	PurgeError      error
	ObjectsDeleted  int
	PurgedLocations []string
	Operations      *[]string
}

// Purge records the location.
func (purger *PurgerStub) Purge(_ context.Context, location string) (storage.PurgeReport, error) {
	if purger.Operations != nil {
		*purger.Operations = append(*purger.Operations, OperationPurge)
	}
	purger.PurgedLocations = append(purger.PurgedLocations, location)
	if purger.PurgeError != nil {
		return storage.PurgeReport{}, purger.PurgeError
	}
	return storage.PurgeReport{Location: location, ObjectsDeleted: purger.ObjectsDeleted}, nil
}

// PrompterStub answers confirmations with a fixed response.
type PrompterStub struct {
	Response bool
	Error    error
	Prompts  []string
}

// Confirm records the prompt.
func (prompter *PrompterStub) Confirm(_ context.Context, prompt string) (bool, error) {
	prompter.Prompts = append(prompter.Prompts, prompt)
	return prompter.Response, prompter.Error
}

// ServiceOutcome configures the result returned by ServiceStub for a table.
type ServiceOutcome struct {
	Result migrate.MigrationResult
	Error  error
}

// ServiceStub captures migration execution requests for verification.
type ServiceStub struct {
	Outcomes        map[string]ServiceOutcome
	ExecutedOptions []migrate.MigrationOptions
}

// Execute returns the configured outcome for the table named in the provided options.
func (service *ServiceStub) Execute(_ context.Context, options migrate.MigrationOptions) (migrate.MigrationResult, error) {
	service.ExecutedOptions = append(service.ExecutedOptions, options)
	if service.Outcomes == nil {
		return migrate.MigrationResult{}, nil
	}
	outcome, exists := service.Outcomes[options.Parameters.Table]
	if !exists {
		return migrate.MigrationResult{}, nil
	}
	return outcome.Result, outcome.Error
}
