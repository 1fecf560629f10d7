// Package store holds what the persistence backends share.
package store

import "errors"

// ErrStoreUnavailable reports a backing file or database that exists but
// cannot be read or parsed. It is never returned for a store that simply
// has not been created yet.
var ErrStoreUnavailable = errors.New("store unavailable")

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)
