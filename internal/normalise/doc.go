// Package normalise canonicalises the identifiers and values that arrive in
// portal-specific shapes: parcel identifiers, street addresses, dollar
// amounts, interest rates, and dates. Two raw inputs that refer to the same
// physical parcel must normalise to the same key; that property is the
// pipeline's critical correctness requirement for merging data across
// sources.
package normalise
