// Package repository defines the persistence layer and the sentinel error
// values reused across repositories. These sentinels let the service layer
// distinguish failure scenarios without inspecting driver errors: for
// example, ErrEmailExists signals a lost creation race on the unique email
// index, which the login flow must retry as a normal login rather than
// propagate.
package repository

import "errors"

// ErrNotFound is returned when no record matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert violates the unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrPhoneExists is returned when an update violates the unique phone index.
var ErrPhoneExists = errors.New("phone number already exists")
