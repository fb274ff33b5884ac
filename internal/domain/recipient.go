package domain

import "strings"

// MaxRecipients is the hard upper bound on the number of unique recipients
// a single campaign may be submitted to. The bound applies after
// deduplication.
const MaxRecipients = 1000

// EmailAddress is an address in canonical form: it matched the shape
// pattern and has been trimmed and lower-cased.
type EmailAddress string

// String returns the address as a plain string.
func (e EmailAddress) String() string { return string(e) }

// RecipientSet is an ordered collection of unique canonical addresses.
// Order is first-seen order of the candidates it was built from.
type RecipientSet []EmailAddress

// Len returns the number of unique recipients.
func (s RecipientSet) Len() int { return len(s) }

// Strings returns the addresses as plain strings.
func (s RecipientSet) Strings() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = string(e)
	}
	return out
}

// Join returns the addresses joined by sep, in set order.
func (s RecipientSet) Join(sep string) string {
	return strings.Join(s.Strings(), sep)
}
