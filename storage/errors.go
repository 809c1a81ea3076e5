package storage

import "errors"

// Sentinel errors shared by all CAS adapters. ErrCIDMismatch means stored
// bytes no longer hash to their CID; ErrImmutable means a Put tried to
// replace an existing object with different bytes.
var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
