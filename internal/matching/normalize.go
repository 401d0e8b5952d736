package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// qualifiers mark a " - ..." tail as release noise rather than part of the title.
var qualifiers = map[string]bool{
	"remaster": true, "remastered": true, "remastering": true,
	"live": true, "edit": true, "version": true, "mix": true, "remix": true,
	"mono": true, "stereo": true, "acoustic": true, "demo": true, "bonus": true,
	"deluxe": true, "explicit": true, "clean": true, "instrumental": true,
	"single": true, "anniversary": true, "radio": true, "extended": true,
	"feat": true, "ft": true, "featuring": true, "unplugged": true,
}

var featuring = map[string]bool{"feat": true, "ft": true, "featuring": true}

// dashSeparators are the spaced dashes catalogs use before release qualifiers.
var dashSeparators = []string{" - ", " – ", " — "}

// Normalize reduces a title or artist name to a canonical comparison form.
//
// The result is lowercase, free of diacritics, bracketed qualifiers, dash
// qualifiers ("Hey Jude - Remastered 2015"), featured-artist tails and
// punctuation, with single spaces between words. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = foldDiacritics(strings.ToLower(s))
	s = strings.ReplaceAll(s, "&", " and ")
	s = stripBrackets(s)
	s = stripDashQualifiers(s)

	tokens := strings.Fields(stripPunctuation(s))
	for i, tok := range tokens {
		if i > 0 && featuring[tok] {
			tokens = tokens[:i]
			break
		}
	}
	return strings.Join(tokens, " ")
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// stripBrackets removes (...), [...] and {...} segments, nested or not.
// When nothing would remain outside the brackets, their contents are kept instead.
func stripBrackets(s string) string {
	var outside, inside, pending strings.Builder
	depth := 0

	for _, r := range s {
		switch r {
		case '(', '[', '{':
			if depth == 0 {
				outside.WriteRune(' ')
			}
			depth++
			pending.WriteRune(' ')
		case ')', ']', '}':
			if depth == 0 {
				outside.WriteRune(' ')
				continue
			}
			depth--
			pending.WriteRune(' ')
			if depth == 0 {
				inside.WriteString(pending.String())
				pending.Reset()
			}
		default:
			if depth > 0 {
				pending.WriteRune(r)
			} else {
				outside.WriteRune(r)
			}
		}
	}

	// unclosed bracket: keep what followed it
	outside.WriteString(pending.String())

	if strings.TrimSpace(outside.String()) == "" {
		return inside.String() + outside.String()
	}
	return outside.String()
}

// stripDashQualifiers drops trailing " - <qualifier>" segments, innermost last.
func stripDashQualifiers(s string) string {
	for {
		idx, sepLen := lastSeparator(s)
		if idx < 0 {
			return s
		}

		head, tail := s[:idx], s[idx+sepLen:]
		if strings.TrimSpace(head) == "" || !hasQualifier(tail) {
			return s
		}
		s = head
	}
}

func lastSeparator(s string) (int, int) {
	best, bestLen := -1, 0
	for _, sep := range dashSeparators {
		if i := strings.LastIndex(s, sep); i > best {
			best, bestLen = i, len(sep)
		}
	}
	return best, bestLen
}

func hasQualifier(tail string) bool {
	words := strings.FieldsFunc(tail, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if qualifiers[w] {
			return true
		}
	}
	return false
}

// stripPunctuation deletes apostrophes and turns every other non-word rune into a space.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’' || r == '‘' || r == '`' || r == '´' || r == 'ʼ':
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			return r
		default:
			return ' '
		}
	}, s)
}
