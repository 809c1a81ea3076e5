package storage

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiCAS reads through an ordered list of adapters.
//
// Retrieval tries Adapters in slice order and returns the first hit; the
// fixed order keeps hydration deterministic and makes the fallback strategy
// explicit. Writes go only to the first adapter; use ReplicatingCAS to fan
// writes out.
type MultiCAS struct {
	Adapters []CAS
}

func (m MultiCAS) Put(bytes []byte) (cid.Cid, error) {
	if len(m.Adapters) == 0 {
		return cid.Undef, errors.New("storage: MultiCAS has no adapters")
	}
	return m.Adapters[0].Put(bytes)
}

func (m MultiCAS) Get(id cid.Cid) ([]byte, error) {
	for _, cas := range m.Adapters {
		b, err := cas.Get(id)
		if err == nil {
			return b, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (m MultiCAS) Has(id cid.Cid) bool {
	for _, cas := range m.Adapters {
		if cas.Has(id) {
			return true
		}
	}
	return false
}
