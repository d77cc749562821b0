// Package reconcile turns raw records from every source into validated,
// categorised incidents.
//
// Each raw record passes a fixed sequence of filters. Records with an empty
// or unparseable date, header text that leaked into the data rows, or a
// date outside the configured years are dropped and counted, never reported
// as errors. Survivors take their year from the parsed date rather than the
// page they were scraped from, so a December 2024 death listed on the 2025
// page is attributed to 2024.
//
// Case status, camera presence and method are keyword classifications of the
// free-text columns; see Classify* for the rules and their precedence.
package reconcile
