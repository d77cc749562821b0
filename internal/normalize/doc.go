// Package normalize parses the free-text dates found in source tables.
//
// Two shapes are accepted, tried in order:
//
//   - Month/Day/Year with a two or four digit year ("01/09/25", "01/09/2025")
//   - Month/Year ("01/2025"), read as the first day of that month
//
// Anything else, including well-formed text that names an impossible date
// such as "13/45/25", yields ErrUnparseableDate. Callers treat that as a
// row-level drop and never propagate it further.
package normalize
