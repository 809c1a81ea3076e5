// Package storage defines the content-addressable store that canonical
// payload records are persisted into, plus composition helpers for layering
// multiple backends.
//
// A record's CID is derived from its canonical bytes, so the store never
// needs to trust a caller-supplied identifier: every adapter re-derives and
// checks the CID on both write and read.
package storage

import "github.com/ipfs/go-cid"

// CAS is a minimal content-addressable store for canonical payload records.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers supply canonical bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}
