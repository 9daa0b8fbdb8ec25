package keywords

import (
	"regexp"
	"strings"
)

var (
	reHTTP        = regexp.MustCompile(`http\S+`)
	reWWW         = regexp.MustCompile(`www\S+`)
	reEmail       = regexp.MustCompile(`\S*@\S*\s?`)
	rePunctuation = regexp.MustCompile(`[-.?!,:;()|0-9+&"/%$*=]`)
)

// Clean prepares raw description text for tagging: non-ASCII characters are
// dropped, the text is lowercased and folded onto one line, and links,
// e-mail addresses, digits and punctuation are removed.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	out := strings.ToLower(b.String())
	out = strings.Join(strings.FieldsFunc(out, func(r rune) bool { return r == '\n' || r == '\r' }), " ")

	out = reHTTP.ReplaceAllString(out, "")
	out = reWWW.ReplaceAllString(out, "")
	out = reEmail.ReplaceAllString(out, "")
	// Punctuation becomes a space so that "fun,games" stays two words.
	out = rePunctuation.ReplaceAllString(out, " ")
	return strings.Join(strings.Fields(out), " ")
}
