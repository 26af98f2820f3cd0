// Package engine provides the storage backends for BMI records and profiles.
package engine

import "errors"

// Standard errors for the engine.
// Note: We keep these here for internal engine use; the SDK carries its own
// set with matching messages so remote clients surface the same text.
var (
	ErrRecordNotFound  = errors.New("no data found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)
