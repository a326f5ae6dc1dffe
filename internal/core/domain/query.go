package domain

import (
	"regexp"
	"strings"
)

// QueryMode identifies which search field is active for an adapter invocation.
type QueryMode string

const (
	// QueryByOwner searches by owner/party name.
	QueryByOwner QueryMode = "owner"

	// QueryByAddress searches by street address.
	QueryByAddress QueryMode = "address"

	// QueryByParcel searches by assessor parcel identifier.
	QueryByParcel QueryMode = "parcel"
)

// SearchQuery is the input to a source adapter. Exactly one mode is active
// per invocation.
type SearchQuery struct {
	// Mode selects which of the fields below is active.
	Mode QueryMode

	// Owner is the full owner name ("LAST, FIRST" or "First Last").
	Owner string

	// Address is a free-text street address.
	Address string

	// ParcelID is a raw assessor parcel identifier.
	ParcelID string
}

// Validate checks that exactly one query field matches the active mode.
func (q SearchQuery) Validate() error {
	switch q.Mode {
	case QueryByOwner:
		if strings.TrimSpace(q.Owner) == "" {
			return ErrEmptyQuery
		}
	case QueryByAddress:
		if strings.TrimSpace(q.Address) == "" {
			return ErrEmptyQuery
		}
	case QueryByParcel:
		if strings.TrimSpace(q.ParcelID) == "" {
			return ErrEmptyQuery
		}
	default:
		return ErrEmptyQuery
	}
	return nil
}

// OwnerParts is an owner name split into its components.
type OwnerParts struct {
	First  string
	Middle string
	Last   string
}

// SplitOwner breaks an owner name into first/middle/last. Comma-separated
// names are treated as "LAST, FIRST [MIDDLE]"; otherwise the final word is
// the surname.
func SplitOwner(owner string) OwnerParts {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return OwnerParts{}
	}

	if before, after, found := strings.Cut(owner, ","); found {
		rest := strings.Fields(after)
		parts := OwnerParts{Last: strings.TrimSpace(before)}
		if len(rest) > 0 {
			parts.First = rest[0]
		}
		if len(rest) > 1 {
			parts.Middle = strings.Join(rest[1:], " ")
		}
		return parts
	}

	words := strings.Fields(owner)
	switch len(words) {
	case 1:
		return OwnerParts{Last: words[0]}
	case 2:
		return OwnerParts{First: words[0], Last: words[1]}
	default:
		return OwnerParts{
			First:  words[0],
			Middle: strings.Join(words[1:len(words)-1], " "),
			Last:   words[len(words)-1],
		}
	}
}

// AddressParts is a street address split into its components.
type AddressParts struct {
	Number string
	Street string
	Suffix string
}

var leadingNumberRe = regexp.MustCompile(`^\s*(\d+[A-Za-z]?)\s+(.+)$`)

// SplitAddress breaks a street address into number, street name, and suffix.
// An address without a leading number yields only a street name.
func SplitAddress(address string) AddressParts {
	address = strings.TrimSpace(address)
	if address == "" {
		return AddressParts{}
	}

	m := leadingNumberRe.FindStringSubmatch(address)
	if m == nil {
		return AddressParts{Street: address}
	}

	words := strings.Fields(m[2])
	if len(words) == 1 {
		return AddressParts{Number: m[1], Street: words[0]}
	}
	return AddressParts{
		Number: m[1],
		Street: strings.Join(words[:len(words)-1], " "),
		Suffix: words[len(words)-1],
	}
}
