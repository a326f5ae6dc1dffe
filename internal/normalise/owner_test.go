package normalise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerKey_NameOrderInvariant(t *testing.T) {
	a := OwnerKey("salem", "HOMEOWNER, JOHN Q")
	b := OwnerKey("salem", "John Q Homeowner")

	assert.Equal(t, a, b)
	assert.Equal(t, "salem:owner-homeowner-john-q", a)
}

func TestOwnerKey_SingleWord(t *testing.T) {
	assert.Equal(t, "salem:owner-homeowner", OwnerKey("salem", "Homeowner"))
}

func TestOwnerKey_Empty(t *testing.T) {
	assert.Empty(t, OwnerKey("salem", "  "))
}
