// Package domain defines the core value types of the campaign composer.
//
// Types in this package are pure value objects with no behavior beyond
// small pure helpers, no I/O, and no HTTP concerns. They are the shared
// language between the extractors, the submission gate, the composer and
// the sending client.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Constants and enums belong here
package domain
