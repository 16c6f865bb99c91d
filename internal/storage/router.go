package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	unsupportedSchemeTemplate = "%w: %q (location %q)"
	purgerCreationTemplate    = "unable to prepare %s storage client: %w"
)

// ErrUnsupportedScheme indicates that no purger is registered for a location scheme.
var ErrUnsupportedScheme = errors.New("unsupported storage scheme")

// PurgeReport summarizes a completed purge.
type PurgeReport struct {
	Location       string
	ObjectsDeleted int
}

// Purger recursively deletes everything stored under a location.
type Purger interface {
	Purge(executionContext context.Context, location string) (PurgeReport, error)
}

// PurgerFactory builds a purger on first use so that credentials are only resolved for schemes that are needed.
type PurgerFactory func(executionContext context.Context) (Purger, error)

// backend is one registered factory and the purger it built, shared by every scheme it was registered for.
type backend struct {
	factory PurgerFactory
	purger  Purger
}

// Router dispatches purges to a backend chosen by location scheme.
type Router struct {
	mutex    sync.Mutex
	backends map[string]*backend
}

// NewRouter constructs an empty router.
func NewRouter() *Router {
	return &Router{backends: map[string]*backend{}}
}

// Register associates a factory with one or more schemes. The factory runs at most once for all of them.
func (router *Router) Register(factory PurgerFactory, schemes ...string) {
	router.mutex.Lock()
	defer router.mutex.Unlock()
	registered := &backend{factory: factory}
	for _, scheme := range schemes {
		router.backends[scheme] = registered
	}
}

// Purge deletes everything under location using the purger registered for its scheme.
func (router *Router) Purge(executionContext context.Context, location string) (PurgeReport, error) {
	scheme, schemeError := Scheme(location)
	if schemeError != nil {
		return PurgeReport{}, schemeError
	}

	purger, resolveError := router.resolve(executionContext, scheme, location)
	if resolveError != nil {
		return PurgeReport{}, resolveError
	}
	return purger.Purge(executionContext, location)
}

func (router *Router) resolve(executionContext context.Context, scheme string, location string) (Purger, error) {
	router.mutex.Lock()
	defer router.mutex.Unlock()

	registered, found := router.backends[scheme]
	if !found {
		return nil, fmt.Errorf(unsupportedSchemeTemplate, ErrUnsupportedScheme, scheme, location)
	}
	if registered.purger != nil {
		return registered.purger, nil
	}
	purger, creationError := registered.factory(executionContext)
	if creationError != nil {
		return nil, fmt.Errorf(purgerCreationTemplate, scheme, creationError)
	}
	registered.purger = purger
	return purger, nil
}
