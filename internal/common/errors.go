// Package common defines sentinel errors and constants shared by the
// journeykeeper client packages. Callers should match errors with errors.Is.
package common

import "errors"

var (
	// repository errors
	ErrNotFound = errors.New("not found")

	ErrInvalidToken = errors.New("invalid token")

	// validation
	ErrInvalidArgument = errors.New("invalid argument")
)
