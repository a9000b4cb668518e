// Package id generates run identifiers.
package id

import "github.com/oklog/ulid/v2"

// New returns a ULID string. ULIDs sort lexicographically by creation
// time, which keeps journal listings in chronological order for free.
func New() string {
	return ulid.Make().String()
}
