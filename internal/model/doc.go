// Package model defines the data structures shared by every stage of casetally.
//
// This package contains the following main types:
//   - RawRecord: one table row scraped from a source, before normalization
//   - ReconciledRecord: a validated, dated and categorised incident record
//   - SchemaMap: canonical field name to physical column index
//   - Run: the state of one pipeline execution across all sources
//
// Models live in their own package so that extract, reconcile, aggregate,
// report and database can share them without import cycles. All types are
// serializable to JSON for report output and run history storage.
package model
