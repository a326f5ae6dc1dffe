package normalise

import (
	"strconv"
	"strings"
	"time"
)

// ParseAmount converts a currency-formatted string ("$450,000.00") into a
// dollar value. Returns false when the string is not a parseable amount.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseRate converts a percentage string into an annual rate expressed as a
// fraction: "5.25%" and "5.25" both yield 0.0525, while an input already in
// fractional form ("0.0525") passes through unchanged. Rates of 1.0 and
// above are treated as percentages; no recorded mortgage carries 100%+
// interest.
func ParseRate(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	if v >= 1 {
		v /= 100
	}
	return v, true
}

// dateLayouts are the recording-date formats observed across portals, in
// the order they are tried.
var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"1-2-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
	"20060102",
}

// ParseDate normalises a date string from any supported portal format to
// the canonical YYYY-MM-DD form. Returns false for unrecognised input.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// Number-word tables for spelled-out amounts in older recorded instruments.
var (
	numberOnes = map[string]int{
		"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
		"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
		"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
		"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
		"eighteen": 18, "nineteen": 19,
	}
	numberTens = map[string]int{
		"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}
)

// ParseWrittenNumber converts spelled-out amounts such as
// "Four Hundred Fifty Thousand" to their numeric value. Returns false when
// the text contains no recognisable number words.
func ParseWrittenNumber(text string) (int, bool) {
	words := strings.Fields(strings.ToLower(strings.NewReplacer("-", " ", ",", "").Replace(text)))

	current, total := 0, 0
	matched := false
	for _, word := range words {
		switch {
		case numberOnes[word] != 0 || word == "zero":
			current += numberOnes[word]
			matched = true
		case numberTens[word] != 0:
			current += numberTens[word]
			matched = true
		case word == "hundred":
			if current == 0 {
				current = 1
			}
			current *= 100
			matched = true
		case word == "thousand":
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0
			matched = true
		case word == "million":
			if current == 0 {
				current = 1
			}
			total += current * 1000000
			current = 0
			matched = true
		}
	}
	total += current
	if !matched || total <= 0 {
		return 0, false
	}
	return total, true
}
