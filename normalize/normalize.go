// Package normalize strips markdown decoration from streamed model output so
// it renders as plain chat text.
package normalize

import "regexp"

var (
	boldPattern    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern  = regexp.MustCompile(`\*(.*?)\*`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,4}\s+`)
	bulletPattern  = regexp.MustCompile(`(?m)^- `)
)

// Text removes bold and italic markers, strips heading prefixes and rewrites
// leading hyphens into bullet glyphs. The transformation is idempotent:
// applying it to already-normalized text is a no-op, so it can safely run on
// the whole accumulated response after every appended fragment.
func Text(s string) string {
	s = boldPattern.ReplaceAllString(s, "$1")
	s = italicPattern.ReplaceAllString(s, "$1")
	s = headingPattern.ReplaceAllString(s, "")
	s = bulletPattern.ReplaceAllString(s, "• ")
	return s
}
