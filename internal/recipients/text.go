package recipients

import (
	"regexp"
	"strings"
)

var textSeparators = regexp.MustCompile(`[,;\r\n]+`)

// ExtractText splits pasted text on runs of commas, semicolons and line
// breaks. Pieces are trimmed and empty pieces dropped; duplicates and
// malformed tokens are kept.
func ExtractText(text string) []string {
	var out []string
	for _, piece := range textSeparators.Split(text, -1) {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}
