package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeS3Constant        = "s3"
	schemeS3AConstant       = "s3a"
	schemeS3NConstant       = "s3n"
	schemeGCSConstant       = "gs"
	schemeABFSSConstant     = "abfss"
	schemeABFSConstant      = "abfs"
	schemeWASBSConstant     = "wasbs"
	schemeWASBConstant      = "wasb"
	schemeDBFSConstant      = "dbfs"
	schemeFileConstant      = "file"
	schemeBarePathConstant  = ""
	prefixSeparatorConstant = "/"
	locationParseTemplate   = "unable to parse location %q: %w"
	locationBucketTemplate  = "location %q does not name a bucket or container"
	locationRootTemplate    = "%w: refusing to purge the root of %q"
)

// Supported location schemes grouped by backend.
var (
	S3Schemes    = []string{schemeS3Constant, schemeS3AConstant, schemeS3NConstant}
	GCSSchemes   = []string{schemeGCSConstant}
	AzureSchemes = []string{schemeABFSSConstant, schemeABFSConstant, schemeWASBSConstant, schemeWASBConstant}
	DBFSSchemes  = []string{schemeDBFSConstant}
	LocalSchemes = []string{schemeFileConstant, schemeBarePathConstant}
)

// ErrRootPurgeRefused indicates a location that resolves to a bucket, container or file system root.
var ErrRootPurgeRefused = errors.New("purging a storage root is not allowed")

// ObjectLocation is a parsed object store location.
type ObjectLocation struct {
	Raw       string
	Scheme    string
	Bucket    string
	Authority string
	Prefix    string
}

// Scheme returns the lowercased scheme of a location, or an empty string for bare paths.
func Scheme(location string) (string, error) {
	parsedLocation, parseError := url.Parse(strings.TrimSpace(location))
	if parseError != nil {
		return "", fmt.Errorf(locationParseTemplate, location, parseError)
	}
	return strings.ToLower(parsedLocation.Scheme), nil
}

// ParseObjectLocation splits an object store URI into bucket and slash-terminated prefix. For Azure URIs the
// bucket is the container and the authority is the account host.
func ParseObjectLocation(location string) (ObjectLocation, error) {
	parsedLocation, parseError := url.Parse(strings.TrimSpace(location))
	if parseError != nil {
		return ObjectLocation{}, fmt.Errorf(locationParseTemplate, location, parseError)
	}

	objectLocation := ObjectLocation{
		Raw:       location,
		Scheme:    strings.ToLower(parsedLocation.Scheme),
		Bucket:    parsedLocation.Host,
		Authority: parsedLocation.Host,
		Prefix:    NormalizePrefix(parsedLocation.Path),
	}
	if parsedLocation.User != nil {
		objectLocation.Bucket = parsedLocation.User.Username()
	}
	if len(objectLocation.Bucket) == 0 {
		return ObjectLocation{}, fmt.Errorf(locationBucketTemplate, location)
	}
	if len(objectLocation.Prefix) == 0 {
		return ObjectLocation{}, fmt.Errorf(locationRootTemplate, ErrRootPurgeRefused, location)
	}
	return objectLocation, nil
}

// NormalizePrefix strips leading slashes and guarantees a single trailing slash. An empty path stays empty.
func NormalizePrefix(path string) string {
	trimmedPath := strings.Trim(path, prefixSeparatorConstant)
	if len(trimmedPath) == 0 {
		return ""
	}
	return trimmedPath + prefixSeparatorConstant
}
