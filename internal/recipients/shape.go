package recipients

import (
	"regexp"
	"strings"
)

// shapePattern accepts local@domain.tld with no whitespace or extra '@'.
var shapePattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// LooksLikeEmail reports whether s, after trimming, matches the email
// shape pattern.
func LooksLikeEmail(s string) bool {
	return shapePattern.MatchString(strings.TrimSpace(s))
}

// Partition splits candidates into those matching the shape pattern and
// those that don't. Both slices keep input order; candidates are trimmed.
func Partition(candidates []string) (valid, invalid []string) {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if shapePattern.MatchString(c) {
			valid = append(valid, c)
		} else {
			invalid = append(invalid, c)
		}
	}
	return valid, invalid
}
