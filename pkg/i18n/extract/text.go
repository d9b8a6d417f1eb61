package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	schemeRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://\S*$`)
	uriRE    = regexp.MustCompile(`^(mailto|tel|data):\S+$`)
	emailRE  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	numberRE = regexp.MustCompile(`^[+-]?[0-9][0-9.,_' ]*%?$`)
	hexRE    = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	classRE  = regexp.MustCompile(`^(?:[a-z0-9]+:)*-?[a-z][a-z0-9]*(?:-[a-z0-9./\[\]%#]+)+$`)
)

// maxClassToken bounds the length of a token still treated as a CSS class.
const maxClassToken = 40

// openers are punctuation runes that may start ordinary prose.
const openers = `¿¡"'“‘«»„‚‹(「『【`

// NeedsTranslation reports whether text reads like human prose. It rejects
// blank strings, URLs, email addresses, numbers, hex colors, CSS class lists
// and strings that start with a symbol. Everything else is accepted
// regardless of language or script.
func NeedsTranslation(text string) bool {
	s := strings.TrimSpace(text)
	switch {
	case s == "":
		return false
	case isURL(s):
		return false
	case emailRE.MatchString(s):
		return false
	case numberRE.MatchString(s):
		return false
	case hexRE.MatchString(s):
		return false
	case isClassList(s):
		return false
	case symbolLed(s):
		return false
	}
	return true
}

func isURL(s string) bool {
	if strings.HasPrefix(s, "//") || strings.HasPrefix(strings.ToLower(s), "www.") {
		return !strings.ContainsAny(s, " \t\n")
	}
	return schemeRE.MatchString(s) || uriRE.MatchString(s)
}

func isClassList(s string) bool {
	tokens := strings.Fields(s)
	for _, tok := range tokens {
		if len(tok) > maxClassToken || !classRE.MatchString(tok) {
			return false
		}
	}
	return len(tokens) > 0
}

func symbolLed(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	return !strings.ContainsRune(openers, r)
}
