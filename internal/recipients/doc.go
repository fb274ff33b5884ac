// Package recipients turns operator input into canonical recipient sets.
//
// Two extraction paths exist. ExtractText splits free-form pasted text into
// raw candidates without checking their shape. ExtractFile reads an
// uploaded CSV or XLSX file and keeps only cells that look like an email
// address. Normalize lower-cases, trims and deduplicates candidates from
// either path, preserving first-seen order.
//
// Shape checking is applied uniformly to every source: text candidates are
// split into well-formed and malformed tokens by Partition so that callers
// can report malformed tokens instead of forwarding them.
package recipients
