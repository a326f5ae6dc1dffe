package normalise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressKey_FormattingVariants(t *testing.T) {
	// All documented formatting variants of the same physical parcel must
	// produce the same key.
	want := AddressKey("250", "12 Main St")

	variants := []string{
		"012 MAIN STREET",
		"12 Main Street",
		"12 main st.",
		"12 MAIN ST",
		"12 Main St, Apt 2",
		"12 Main Street Unit 4B",
		"12 Main St #3",
	}
	for _, v := range variants {
		assert.Equal(t, want, AddressKey("250", v), "variant %q", v)
	}
}

func TestAddressKey_DifferentParcelsDiffer(t *testing.T) {
	a := AddressKey("250", "12 Main St")
	b := AddressKey("250", "14 Main St")
	c := AddressKey("251", "12 Main St")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c, "municipality is part of the key")
}

func TestAddressKey_Abbreviations(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"7 Oak Ave", "250:7-oak-avenue"},
		{"7 Oak Avenue", "250:7-oak-avenue"},
		{"19 N Shore Rd", "250:19-north-shore-road"},
		{"1 Harbor Blvd", "250:1-harbor-boulevard"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AddressKey("250", tt.raw), "raw %q", tt.raw)
	}
}

func TestAddressKey_EmptyInput(t *testing.T) {
	assert.Empty(t, AddressKey("250", ""))
	assert.Empty(t, AddressKey("250", "  ,  "))
}
