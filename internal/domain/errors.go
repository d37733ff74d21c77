// Package domain holds cross-cutting domain types and sentinel errors.
package domain

import "errors"

var (
	// ErrInvalidCriteria signals a malformed filter field (bad enum or number).
	ErrInvalidCriteria = errors.New("invalid criteria")
	// ErrStoreUnavailable signals that the property store could not be reached.
	ErrStoreUnavailable = errors.New("property store unavailable")
	// ErrStoreTimeout signals that the property store call exceeded its deadline.
	ErrStoreTimeout = errors.New("property store timeout")
	// ErrSessionNotFound signals an unknown or expired quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrPropertyNotFound signals a missing property record.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrSuperseded signals that a newer request for the same session started
	// while this one was in flight; its result must not be published.
	ErrSuperseded = errors.New("request superseded")
)
