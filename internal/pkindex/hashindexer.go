// Copyright 2024 The Erigon Authors
// (modifications)
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package pkindex

import (
	"sync"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/schema"
)

const hashIndexerInitialCapacity = 16
const hashIndexerMaxLoadFactor = 0.75

// HashIndexer is the mutable, open-addressing build of the primary-key
// indexer (§4.2): used on the update-transaction path where vids are
// assigned incrementally as new oids are seen. Lookup is read-mostly and
// takes an RLock; Insert takes the exclusive lock. Under the transaction
// manager's single-write-slot discipline (§5) Insert is never called
// concurrently with itself, so the lock only ever contends with readers.
type HashIndexer struct {
	mu      sync.RWMutex
	kind    schema.KeyType
	keys    []OID  // vid -> oid
	buckets []int32 // open-addressing table; -1 = empty, else vid
	mask    uint64
}

// NewHashIndexer returns an empty mutable indexer for a label whose
// primary key is of the given kind.
func NewHashIndexer(kind schema.KeyType) *HashIndexer {
	h := &HashIndexer{kind: kind}
	h.reset(hashIndexerInitialCapacity)
	return h
}

func (h *HashIndexer) reset(capacity int) {
	n := 1
	for n < capacity {
		n <<= 1
	}
	h.buckets = make([]int32, n)
	for i := range h.buckets {
		h.buckets[i] = -1
	}
	h.mask = uint64(n - 1)
}

func (h *HashIndexer) probe(o OID) int {
	idx := int(hashSeed(o.Bytes(), 0) & h.mask)
	for {
		slot := h.buckets[idx]
		if slot == -1 {
			return idx
		}
		if h.keys[slot].Equal(o) {
			return idx
		}
		idx = (idx + 1) & int(h.mask)
	}
}

// Lookup returns the vid assigned to oid, if any.
func (h *HashIndexer) Lookup(o OID) (vid uint32, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if o.Kind() != h.kind {
		return 0, false
	}
	idx := h.probe(o)
	slot := h.buckets[idx]
	if slot == -1 {
		return 0, false
	}
	return uint32(slot), true
}

// Insert returns the existing vid for oid if present, otherwise assigns
// vid = Size() and extends the indexer by one (§4.2). Idempotent: a
// second Insert of the same oid returns (vid, false).
func (h *HashIndexer) Insert(o OID) (vid uint32, isNew bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o.Kind() != h.kind {
		return 0, false, errs.New(errs.KindTypeMismatch, "pkindex.Insert", nil)
	}
	idx := h.probe(o)
	if slot := h.buckets[idx]; slot != -1 {
		return uint32(slot), false, nil
	}
	newVid := uint32(len(h.keys))
	h.keys = append(h.keys, o)
	h.buckets[idx] = int32(newVid)
	if float64(len(h.keys)) > float64(len(h.buckets))*hashIndexerMaxLoadFactor {
		h.rehash()
	}
	return newVid, true, nil
}

func (h *HashIndexer) rehash() {
	old := h.keys
	h.reset(len(h.buckets) * 2)
	for vid, o := range old {
		idx := h.probe(o)
		h.buckets[idx] = int32(vid)
	}
	h.keys = old
}

// Reverse returns the oid assigned to vid, if vid is in range.
func (h *HashIndexer) Reverse(vid uint32) (OID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if int(vid) >= len(h.keys) {
		return OID{}, false
	}
	return h.keys[vid], true
}

// Size returns the current population (== next vid to be assigned).
func (h *HashIndexer) Size() uint32 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return uint32(len(h.keys))
}

// Keys returns a snapshot copy of the vid-ordered oid list, used by the
// loader/compaction path when freezing a HashIndexer into a
// PerfectHashIndexer.
func (h *HashIndexer) Keys() []OID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]OID, len(h.keys))
	copy(out, h.keys)
	return out
}
