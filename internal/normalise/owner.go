package normalise

import (
	"strings"

	"github.com/parcelworks/deedline/internal/core/domain"
)

// OwnerKey produces the stable record key for an owner-name query within
// one municipality. "HOMEOWNER, JOHN Q" and "John Q Homeowner" map to the
// same key.
func OwnerKey(muniCode, owner string) string {
	parts := domain.SplitOwner(owner)
	words := make([]string, 0, 3)
	for _, w := range []string{parts.Last, parts.First, parts.Middle} {
		if w = strings.ToLower(strings.Trim(w, " .,")); w != "" {
			words = append(words, strings.Join(strings.Fields(w), "-"))
		}
	}
	if len(words) == 0 {
		return ""
	}
	return muniCode + ":owner-" + strings.Join(words, "-")
}
