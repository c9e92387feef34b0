// Package normalize canonicalizes the free-text fields of a lead so that
// records typed by different people can be compared.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks covers the Combining Diacritical Marks block (U+0300–U+036F).
var combiningMarks = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036F
})

// đ has no NFD decomposition, so it is mapped before the accent strip.
var dStroke = strings.NewReplacer("đ", "d", "Đ", "D")

var phoneSeparators = regexp.MustCompile(`[\s\-.()]`)

// Normalize lower-cases s, strips Vietnamese accents and collapses whitespace.
// Blank input yields "".
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	s = dStroke.Replace(strings.ToLower(s))
	s = stripMarks(s)
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase lower-cases every whitespace-separated word and upper-cases its
// first letter. Words are re-joined with single spaces.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		w = strings.ToLower(w)
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// RemoveTones strips accents but keeps case, e.g. for group tags.
func RemoveTones(s string) string {
	return stripMarks(dStroke.Replace(s))
}

// Phone canonicalizes a Vietnamese phone number to its leading-zero form.
func Phone(raw string) string {
	phone := phoneSeparators.ReplaceAllString(raw, "")
	switch {
	case phone == "":
		return ""
	case strings.HasPrefix(phone, "+84"):
		phone = "0" + phone[3:]
	case strings.HasPrefix(phone, "84"):
		phone = "0" + phone[2:]
	case !strings.HasPrefix(phone, "0"):
		phone = "0" + phone
	}
	return phone
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(combiningMarks), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
