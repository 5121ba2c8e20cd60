package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// StripDiacritics removes combining marks so "Sudadera Niño" and
// "sudadera nino" compare equal.
func StripDiacritics(value string) string {
	out, _, err := transform.String(diacriticStripper, value)
	if err != nil {
		return value
	}
	return out
}

// NormalizeCategory folds a free-form category folder name into a reporting
// bucket: accent-free and lower-cased, reduced to the first word-like segment,
// then stripped of a trailing size marker such as "camisetaM" or "sudadera2".
func NormalizeCategory(category string) string {
	cleaned := strings.TrimSpace(StripDiacritics(category))
	if cleaned == "" {
		return ""
	}

	fields := strings.FieldsFunc(cleaned, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return ""
	}

	head := fields[0]
	runes := []rune(head)
	if len(runes) > 2 {
		last := runes[len(runes)-1]
		prev := runes[len(runes)-2]
		if unicode.IsLower(prev) && (unicode.IsDigit(last) || unicode.IsUpper(last)) {
			runes = runes[:len(runes)-1]
		}
	}
	return strings.ToLower(string(runes))
}

// Slug converts a display name into a storage-safe lower-case segment.
func Slug(value string) string {
	cleaned := strings.ToLower(strings.TrimSpace(StripDiacritics(value)))
	var builder strings.Builder
	lastDash := true
	for _, r := range cleaned {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}
