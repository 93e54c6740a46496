package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds = errors.New("index out of range")
	ErrNoEditor    = errors.New("no editor found")
	ErrNoSource    = errors.New("no source file to reload")
)
