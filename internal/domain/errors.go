// Package domain errors.go contains sentinel errors
package domain

import "errors"

// Sentinel domain-level errors reused by higher layers.
var (
	ErrInvalidID     = errors.New("invalid session id")
	ErrWrongPassword = errors.New("wrong password")
	ErrCorrupted     = errors.New("corrupted or unreadable pdf")
	ErrNotPDF        = errors.New("not a pdf file")
	ErrNoFiles       = errors.New("no files supplied")
)
