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
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/schema"
)

const maxDisplacementAttempts = 1 << 20

// PerfectHashIndexer is the frozen, bulk-loaded build of the primary-key
// indexer (§4.2): a minimal perfect hash over the complete key set plus
// a keys array, built once and never mutated. Lookup(oid)->vid never
// probes more than twice (one bucket hash, one displaced slot hash).
//
// Construction follows the classic "hash, displace" family (Czech,
// Havas & Majewski): partition keys into buckets by a first-level hash,
// process buckets largest-first, and for each bucket search a per-bucket
// displacement seed whose second-level hash places every key in the
// bucket into a currently-free final slot.
type PerfectHashIndexer struct {
	kind         schema.KeyType
	keys         []OID    // vid -> oid, the final minimal perfect hash table
	displacement []uint32 // bucket id -> displacement seed
	numBuckets   uint32
}

// BuildPerfectHash constructs a PerfectHashIndexer over the given oids.
// Duplicate oids are rejected with kDuplicate (bulk load forbids
// duplicate primary keys, §4.2 Failure modes).
func BuildPerfectHash(kind schema.KeyType, oids []OID) (*PerfectHashIndexer, error) {
	n := len(oids)
	if n == 0 {
		return &PerfectHashIndexer{kind: kind, numBuckets: 1, displacement: []uint32{0}}, nil
	}
	if err := rejectDuplicates(oids); err != nil {
		return nil, err
	}

	numBuckets := uint32((n + 3) / 4)
	if numBuckets == 0 {
		numBuckets = 1
	}

	buckets := make([][]int, numBuckets)
	for i, o := range oids {
		b := uint32(hashSeed(o.Bytes(), 0) % uint64(numBuckets))
		buckets[b] = append(buckets[b], i)
	}

	order := make([]int, numBuckets)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return len(buckets[order[a]]) > len(buckets[order[b]])
	})

	occupied := roaring.New()
	slotOf := make([]int, n)
	displacement := make([]uint32, numBuckets)

	for _, b := range order {
		items := buckets[b]
		if len(items) == 0 {
			continue
		}
		found := false
		for d := uint32(0); d < maxDisplacementAttempts; d++ {
			slots := make([]uint32, len(items))
			ok := true
			seen := make(map[uint32]bool, len(items))
			for j, itemIdx := range items {
				slot := uint32(hashSeed(oids[itemIdx].Bytes(), d+1) % uint64(n))
				if occupied.Contains(slot) || seen[slot] {
					ok = false
					break
				}
				seen[slot] = true
				slots[j] = slot
			}
			if ok {
				for j, itemIdx := range items {
					occupied.Add(slots[j])
					slotOf[itemIdx] = int(slots[j])
				}
				displacement[b] = d
				found = true
				break
			}
		}
		if !found {
			return nil, errs.New(errs.KindUnsupported, "pkindex.BuildPerfectHash", nil)
		}
	}

	keys := make([]OID, n)
	for i, o := range oids {
		keys[slotOf[i]] = o
	}

	return &PerfectHashIndexer{
		kind:         kind,
		keys:         keys,
		displacement: displacement,
		numBuckets:   numBuckets,
	}, nil
}

func rejectDuplicates(oids []OID) error {
	seen := make(map[string]struct{}, len(oids))
	for _, o := range oids {
		k := string(o.Bytes())
		if _, ok := seen[k]; ok {
			return errs.New(errs.KindDuplicate, "pkindex.BuildPerfectHash", nil)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Lookup returns the vid assigned to oid, if any.
func (p *PerfectHashIndexer) Lookup(o OID) (vid uint32, ok bool) {
	if o.Kind() != p.kind || len(p.keys) == 0 {
		return 0, false
	}
	n := uint64(len(p.keys))
	b := uint32(hashSeed(o.Bytes(), 0) % uint64(p.numBuckets))
	d := p.displacement[b]
	slot := hashSeed(o.Bytes(), d+1) % n
	if !p.keys[slot].Equal(o) {
		return 0, false
	}
	return uint32(slot), true
}

// Reverse returns the oid assigned to vid, if vid is in range.
func (p *PerfectHashIndexer) Reverse(vid uint32) (OID, bool) {
	if int(vid) >= len(p.keys) {
		return OID{}, false
	}
	return p.keys[vid], true
}

// Size returns the number of keys in the perfect hash table.
func (p *PerfectHashIndexer) Size() uint32 { return uint32(len(p.keys)) }
