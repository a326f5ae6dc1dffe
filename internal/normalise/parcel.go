package normalise

import (
	"strings"
	"unicode"
)

// CanonicalKey produces the stable parcel key for a raw assessor parcel
// identifier or a free-text address within one municipality. Inputs
// containing whitespace are treated as addresses; everything else as parcel
// identifiers.
func CanonicalKey(muniCode, raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.ContainsAny(raw, " \t") {
		return AddressKey(muniCode, raw)
	}
	return ParcelKey(muniCode, raw)
}

// ParcelKey canonicalises an assessor parcel identifier. Identifiers vary in
// separators and zero padding across portals ("012-034-00", "12/34/0",
// "012.034.000"); segments are split on any non-alphanumeric rune, numeric
// segments lose leading zeros, and alphabetic segments are upper-cased.
func ParcelKey(muniCode, parcelID string) string {
	segments := splitSegments(parcelID)
	if len(segments) == 0 {
		return ""
	}
	for i, seg := range segments {
		segments[i] = canonicalSegment(seg)
	}
	return muniCode + ":" + strings.Join(segments, "-")
}

func splitSegments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func canonicalSegment(seg string) string {
	if isNumeric(seg) {
		trimmed := strings.TrimLeft(seg, "0")
		if trimmed == "" {
			return "0"
		}
		return trimmed
	}
	return strings.ToUpper(seg)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
