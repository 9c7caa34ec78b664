// Package store defines the persistence contracts shared by the MySQL
// repository and the in-memory driver, together with the sentinel errors
// both return.  Higher layers such as services and handlers match these
// values with errors.Is to choose a response.
package store

import "errors"

// ErrNotFound is returned when a referenced association, performance,
// purchase or user does not exist.  Handlers translate it into a 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot proceed because of dependent
// records, e.g. deleting a performance that purchases still reference, or
// creating a user whose username is taken.  Handlers translate it into a 409.
var ErrConflict = errors.New("conflict")

// ErrDuplicateCode is returned by InsertPurchase when the verification code
// already exists.  The unique index is the authoritative guard; callers may
// draw a new code and retry.
var ErrDuplicateCode = errors.New("verification code already in use")
