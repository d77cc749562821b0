// Package aggregate computes read-only views over reconciled records.
//
// MonthlyCounts, MethodCounts and AgeStatistics are the primitive views.
// The pivot helpers arrange counts as rows by key and columns by year, with
// every configured year present even when it has no records for a key.
// Summarize bundles all views into a Summary for the report writers.
package aggregate
