package situation

import "errors"

// Sentinel kinds for situational context errors.
var (
	ErrIncompleteContext = errors.New("static table entry missing")
)
