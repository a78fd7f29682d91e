// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while the conflict errors signal that an operation
// cannot proceed given the row's current state (e.g. selling a
// product that is already sold).
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own, or that they may not perform on
// themselves (self-evaluation). Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadySold is returned when a sell attempt loses the race: the
// product's status is already 'sold'. Exactly one caller ever wins
// the conditional status update; everyone else receives this error
// and no second order is created. Maps to HTTP 409.
var ErrAlreadySold = errors.New("already sold")

// ErrNotSold is returned when a seller evaluation targets a product
// that is still selling. Evaluations only make sense after a sale.
// Maps to HTTP 409.
var ErrNotSold = errors.New("not sold yet")

// ErrAlreadyEvaluated is returned when a user tries to evaluate the
// same sale twice. Evaluations are write-once per (product, user).
// Maps to HTTP 409.
var ErrAlreadyEvaluated = errors.New("already evaluated")

// ErrStudentIDExists is returned on registration when the student id
// is already taken (unique index violation). Maps to HTTP 409.
var ErrStudentIDExists = errors.New("student id already exists")
