package normalise

import (
	"strings"
	"unicode"
)

// streetAbbreviations maps common suffix and directional abbreviations to
// their canonical long form. Periods are stripped before lookup, so "St."
// and "ST" both map to "street".
var streetAbbreviations = map[string]string{
	"st":   "street",
	"str":  "street",
	"ave":  "avenue",
	"av":   "avenue",
	"rd":   "road",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"pl":   "place",
	"sq":   "square",
	"ter":  "terrace",
	"terr": "terrace",
	"blvd": "boulevard",
	"cir":  "circle",
	"hwy":  "highway",
	"pkwy": "parkway",
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
}

// unitMarkers start a unit designation; the marker and everything after it
// are dropped from the canonical form.
var unitMarkers = map[string]bool{
	"apt":       true,
	"unit":      true,
	"ste":       true,
	"suite":     true,
	"fl":        true,
	"floor":     true,
	"#":         true,
	"rear":      true,
	"basement":  true,
	"penthouse": true,
}

// AddressKey canonicalises a free-text street address into a stable key
// within one municipality. Formatting variance the key is tolerant of:
// case, leading zeros on the street number, suffix and directional
// abbreviations, punctuation, and trailing unit designations.
//
//	AddressKey("250", "12 Main St")        == AddressKey("250", "012 MAIN STREET")
//	AddressKey("250", "12 Main St Apt 2")  == AddressKey("250", "12 Main Street")
func AddressKey(muniCode, address string) string {
	words := strings.Fields(strings.ToLower(address))

	canonical := make([]string, 0, len(words))
	for i, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#'
		})
		if word == "" {
			continue
		}
		if unitMarkers[word] || strings.HasPrefix(word, "#") {
			break // Unit designation: drop the rest
		}
		if i == 0 && isNumeric(word) {
			word = strings.TrimLeft(word, "0")
			if word == "" {
				word = "0"
			}
		} else if long, ok := streetAbbreviations[word]; ok {
			word = long
		}
		canonical = append(canonical, word)
	}

	if len(canonical) == 0 {
		return ""
	}
	return muniCode + ":" + strings.Join(canonical, "-")
}
