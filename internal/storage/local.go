package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	localOutsideRootTemplate = "path %q is outside the permitted root %q"
	localResolveTemplate     = "unable to resolve local path %q: %w"
	localCountTemplate       = "unable to inspect %q: %w"
	localRemoveTemplate      = "unable to remove %q: %w"
)

// LocalPurger removes directories on the local file system, optionally confined to a root directory.
type LocalPurger struct {
	permittedRoot string
}

// NewLocalPurger constructs a local purger. An empty root permits any path except the file system root.
func NewLocalPurger(permittedRoot string) *LocalPurger {
	return &LocalPurger{permittedRoot: strings.TrimSpace(permittedRoot)}
}

// Purge removes the path and everything below it. A missing path is not an error.
func (purger *LocalPurger) Purge(executionContext context.Context, location string) (PurgeReport, error) {
	localPath, resolveError := purger.resolve(location)
	if resolveError != nil {
		return PurgeReport{}, resolveError
	}
	if contextError := executionContext.Err(); contextError != nil {
		return PurgeReport{}, contextError
	}

	fileCount := 0
	walkError := filepath.WalkDir(localPath, func(_ string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if !entry.IsDir() {
			fileCount++
		}
		return nil
	})
	if walkError != nil && !errors.Is(walkError, fs.ErrNotExist) {
		return PurgeReport{}, fmt.Errorf(localCountTemplate, localPath, walkError)
	}

	if removeError := os.RemoveAll(localPath); removeError != nil {
		return PurgeReport{}, fmt.Errorf(localRemoveTemplate, localPath, removeError)
	}
	return PurgeReport{Location: location, ObjectsDeleted: fileCount}, nil
}

func (purger *LocalPurger) resolve(location string) (string, error) {
	rawPath := strings.TrimSpace(location)
	if parsedLocation, parseError := url.Parse(rawPath); parseError == nil && strings.EqualFold(parsedLocation.Scheme, schemeFileConstant) {
		rawPath = parsedLocation.Path
	}

	absolutePath, absoluteError := filepath.Abs(rawPath)
	if absoluteError != nil {
		return "", fmt.Errorf(localResolveTemplate, location, absoluteError)
	}
	cleanedPath := filepath.Clean(absolutePath)
	if cleanedPath == filepath.VolumeName(cleanedPath)+string(filepath.Separator) {
		return "", fmt.Errorf(locationRootTemplate, ErrRootPurgeRefused, location)
	}

	if len(purger.permittedRoot) == 0 {
		return cleanedPath, nil
	}
	absoluteRoot, rootError := filepath.Abs(purger.permittedRoot)
	if rootError != nil {
		return "", fmt.Errorf(localResolveTemplate, purger.permittedRoot, rootError)
	}
	relativePath, relativeError := filepath.Rel(absoluteRoot, cleanedPath)
	if relativeError != nil || relativePath == "." || relativePath == ".." || strings.HasPrefix(relativePath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf(localOutsideRootTemplate, cleanedPath, absoluteRoot)
	}
	return cleanedPath, nil
}
