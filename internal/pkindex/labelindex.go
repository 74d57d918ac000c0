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
	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/schema"
)

// LabelIndex is one vertex label's complete primary-key index: a frozen
// PerfectHashIndexer built at the label's last snapshot/bulk-load, sized
// as of that version, plus a mutable tail HashIndexer absorbing oids
// inserted since (mirroring internal/vertextable's frozen/tail column
// split, SPEC_FULL.md §4, for the same reason: the frozen structure must
// never grow so concurrent readers of that snapshot stay valid).
// Global vid = local tail vid + frozenPop.
type LabelIndex struct {
	kind      schema.KeyType
	frozen    *PerfectHashIndexer // nil if the label has no snapshot yet
	frozenPop uint32
	tail      *HashIndexer
}

// NewLabelIndex wraps frozen (nil for a label with no snapshot yet) with
// a fresh tail indexer for kind.
func NewLabelIndex(kind schema.KeyType, frozen *PerfectHashIndexer) *LabelIndex {
	pop := uint32(0)
	if frozen != nil {
		pop = frozen.Size()
	}
	return &LabelIndex{kind: kind, frozen: frozen, frozenPop: pop, tail: NewHashIndexer(kind)}
}

// FrozenPopulation reports the vid boundary between the frozen and tail
// halves of the index.
func (l *LabelIndex) FrozenPopulation() uint32 { return l.frozenPop }

// Lookup resolves oid to a global vid, checking the frozen structure
// first (the common case: most reads target long-lived vertices) then
// the tail.
func (l *LabelIndex) Lookup(o OID) (vid uint32, ok bool) {
	if l.frozen != nil {
		if vid, ok := l.frozen.Lookup(o); ok {
			return vid, true
		}
	}
	if tailVid, ok := l.tail.Lookup(o); ok {
		return l.frozenPop + tailVid, true
	}
	return 0, false
}

// Insert resolves oid to its existing vid if already indexed (frozen or
// tail), otherwise assigns a fresh vid in the tail and returns it with
// isNew=true — the vid-assignment rule used by UpdateTxn.AddVertex and
// WAL replay alike (§4.7).
func (l *LabelIndex) Insert(o OID) (vid uint32, isNew bool, err error) {
	if existing, ok := l.Lookup(o); ok {
		return existing, false, nil
	}
	tailVid, isNew, err := l.tail.Insert(o)
	if err != nil {
		return 0, false, err
	}
	return l.frozenPop + tailVid, isNew, nil
}

// Reverse returns the oid assigned to a global vid.
func (l *LabelIndex) Reverse(vid uint32) (OID, bool) {
	if vid < l.frozenPop {
		if l.frozen == nil {
			return OID{}, false
		}
		return l.frozen.Reverse(vid)
	}
	return l.tail.Reverse(vid - l.frozenPop)
}

// Size returns the total indexed population (frozen + tail).
func (l *LabelIndex) Size() uint32 {
	return l.frozenPop + l.tail.Size()
}

// Kind reports the primary-key type this index was built for.
func (l *LabelIndex) Kind() schema.KeyType { return l.kind }

// Freeze builds a PerfectHashIndexer covering every oid currently
// indexed, frozen half unchanged plus the tail enumerated via Keys. The
// returned indexer's vid assignment is its own hash-displacement order,
// not insertion order, so a caller also needs the resulting oid->vid
// mapping to permute any existing row-ordered storage (vertex table
// rows, CSR adjacency) before it can treat this as the new frozen vid
// space. snapshot.Manager.Stage is that caller: it runs Freeze once a bulk
// load or compaction has finished writing a label's tail, then
// rewrites the table/adjacency into the new vid order as part of
// staging the next snapshot version (§4.9 step 3, §4.10).
func (l *LabelIndex) Freeze() (*PerfectHashIndexer, error) {
	oids := make([]OID, 0, l.Size())
	for vid := uint32(0); vid < l.frozenPop; vid++ {
		o, ok := l.frozen.Reverse(vid)
		if !ok {
			return nil, errs.New(errs.KindCorrupt, "pkindex.LabelIndex.Freeze", nil)
		}
		oids = append(oids, o)
	}
	oids = append(oids, l.tail.Keys()...)
	return BuildPerfectHash(l.kind, oids)
}
