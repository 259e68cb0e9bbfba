package schema

import "errors"

// Sentinel kinds for schema errors.
var (
	ErrUnknownFeature = errors.New("feature has no recipe")
)
