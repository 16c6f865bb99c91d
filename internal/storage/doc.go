// Package storage removes the data files left behind by an external table.
//
// A Router picks a Purger by location scheme: S3, Google Cloud Storage,
// Azure Data Lake and Blob Storage, DBFS through the databricks CLI, and the
// local file system. Object store prefixes always end with a slash so that a
// purge of .../sales never touches .../sales_archive.
package storage
