package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrReadOnly        = errors.New("document store is in read-only mode")
	ErrFieldNotFound   = errors.New("field not found")
	ErrInvalidField    = errors.New("invalid field definition")
	ErrRegionNotFound  = errors.New("region not found")
	ErrIndexOutOfRange = errors.New("item index out of range")
)

// ParseError reports a malformed region body.
// Callers treat it as "not applicable": the document is left untouched.
type ParseError struct {
	Line int // 1-based line inside the region body, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse region (line %d): %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse region: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateKeyError rejects a schema mutation whose key is already taken.
type DuplicateKeyError struct {
	Key  string
	Core bool // true when the collision is with a built-in field
}

func (e *DuplicateKeyError) Error() string {
	if e.Core {
		return fmt.Sprintf("field key %q collides with a built-in field", e.Key)
	}
	return fmt.Sprintf("field key %q already exists", e.Key)
}

// PersistenceError reports a failed document store write.
// The store write is all-or-nothing, so the document keeps its previous content.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
