package recipients

import (
	"strings"

	"github.com/ignite/email-shooter/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonicalize trims and lower-cases a candidate. Applying it to an already
// canonical value returns the value unchanged.
func Canonicalize(candidate string) domain.EmailAddress {
	return canonicalize(cases.Lower(language.Und), candidate)
}

func canonicalize(lower cases.Caser, candidate string) domain.EmailAddress {
	return domain.EmailAddress(lower.String(strings.TrimSpace(candidate)))
}

// Normalize builds a RecipientSet from raw candidates. The lower-cased
// form is the uniqueness key; the first occurrence of each key wins and
// first-seen order is preserved. Empty candidates are skipped.
func Normalize(candidates []string) domain.RecipientSet {
	lower := cases.Lower(language.Und)
	seen := make(map[domain.EmailAddress]struct{}, len(candidates))
	set := make(domain.RecipientSet, 0, len(candidates))
	for _, c := range candidates {
		addr := canonicalize(lower, c)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		set = append(set, addr)
	}
	return set
}

// Merge normalizes the union of text-derived and file-derived candidates.
// The resulting set does not depend on which side is passed first, only
// its order does.
func Merge(text, file []string) domain.RecipientSet {
	all := make([]string, 0, len(text)+len(file))
	all = append(all, text...)
	all = append(all, file...)
	return Normalize(all)
}
