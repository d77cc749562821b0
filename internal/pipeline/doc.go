// Package pipeline runs the stages of a tally in a fixed order.
//
// A run moves through three steps, each receiving the shared *model.Run:
//
//   - FetchStep retrieves every configured source
//   - ExtractStep locates each source's table and reads raw records
//   - ReconcileStep validates, re-dates and classifies the raw records
//
// A source that cannot be fetched or has no usable table is marked on its
// SourceResult and contributes nothing; the run continues with the others.
// Only context cancellation between steps stops a run early.
//
// Each step can be constructed and executed on its own, which keeps every
// stage testable in isolation.
package pipeline
