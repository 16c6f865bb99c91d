// Package migrate moves a table to a new storage location: it clones the table, compares the copies, drops the
// original registration, removes the original files of unmanaged tables, and registers the table again under its
// original name.
package migrate
