// Package catalog talks to the lakehouse SQL warehouse that owns table metadata.
//
// Statements are produced by typed builders that quote every identifier and
// string literal, and SQLSession executes them over database/sql with the
// Databricks SQL driver. Errors raised by the warehouse are surfaced with
// their original message so operators see exactly what the platform reported.
package catalog
