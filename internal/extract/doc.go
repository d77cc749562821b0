// Package extract turns a parsed HTML page into raw incident records.
//
// # Stages
//
//   - LocateTable picks the first <table> in document order.
//   - Grid flattens that table into rows of cell text.
//   - MapSchema finds the header row and resolves canonical fields
//     (date, age, closed, camera, notes) to column indexes by name.
//   - ExtractRecords reads the mapped cells of every row below the header.
//
// Extract runs all four stages for one source. Column matching is an ordered
// list of rules evaluated by ResolveColumn; a missing optional column leaves
// the field empty, while a missing date column makes the source unusable.
//
// # Usage
//
//	table, err := extract.Extract(doc, 2025)
//	if errors.Is(err, extract.ErrNoTable) {
//		// source contributes no records
//	}
//	records := table.Records
package extract
