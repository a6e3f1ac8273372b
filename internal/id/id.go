// Package id mints the identifiers the engine hands out: client order ids
// and the ids of synthesized reconciliation orders. Ids are ULIDs, so a
// sorted listing is a creation-time listing.
package id

import "github.com/oklog/ulid/v2"

// New returns a fresh ULID string. Safe for concurrent use; ids minted
// within the same millisecond still sort in generation order.
func New() string {
	return ulid.Make().String()
}
