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

package csr

import (
	"golang.org/x/exp/slices"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/arena"
	"github.com/erigontech/graphcore/schema"
)

const initialRunCapacity = 4

// directionalStore is one direction's (out or in) neighbor storage for a
// triplet (§4.4): reserved_off[v]/size[v] bookkeeping in a metaArray plus
// the neighbor records themselves in an overflow arena.
type directionalStore struct {
	strategy   schema.Strategy
	immutable  bool
	recSize    uint32
	triplet    *schema.Triplet
	meta       *metaArray
	overflow   *arena.Arena
}

func openDirectionalStore(metaPath, overflowPath string, t *schema.Triplet, strategy schema.Strategy) (*directionalStore, error) {
	meta, err := openMetaArray(metaPath)
	if err != nil {
		return nil, err
	}
	ov, err := arena.Open(overflowPath)
	if err != nil {
		meta.close()
		return nil, err
	}
	return &directionalStore{
		strategy:  strategy,
		immutable: t.Immutable,
		recSize:   recordSize(t),
		triplet:   t,
		meta:      meta,
		overflow:  ov,
	}, nil
}

func (s *directionalStore) edges(vid uint32) ([]Edge, error) {
	if s.strategy == schema.StrategyNone {
		return nil, nil
	}
	vm := s.meta.get(vid)
	if vm.size == 0 {
		return nil, nil
	}
	buf := s.overflow.Slice(vm.off, vm.size*s.recSize)
	out := make([]Edge, vm.size)
	for i := uint32(0); i < vm.size; i++ {
		e, err := decodeEdge(buf[i*s.recSize:(i+1)*s.recSize], s.triplet)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// append writes one neighbor record under vid, growing the overflow run
// per the Multiple-strategy doubling policy (§4.4), or applying the
// Single/None strategy's rules.
func (s *directionalStore) append(vid uint32, e Edge) error {
	switch s.strategy {
	case schema.StrategyNone:
		return errs.New(errs.KindDisallowed, "csr.directionalStore.append", nil)
	case schema.StrategySingle:
		return s.appendSingle(vid, e)
	case schema.StrategyMultiple:
		return s.appendMultiple(vid, e)
	default:
		return errs.New(errs.KindUnsupported, "csr.directionalStore.append", nil)
	}
}

func (s *directionalStore) appendSingle(vid uint32, e Edge) error {
	vm := s.meta.get(vid)
	if vm.capacity == 0 {
		off, _, err := s.overflow.Append(make([]byte, s.recSize))
		if err != nil {
			return err
		}
		vm = vertexMeta{off: off, capacity: 1, size: 0}
	} else if vm.size == 1 && s.immutable {
		return errs.New(errs.KindConflict, "csr.directionalStore.append", nil)
	}
	if err := encodeEdge(s.overflow.Slice(vm.off, s.recSize), s.triplet, e); err != nil {
		return err
	}
	vm.size = 1
	return s.meta.set(vid, vm)
}

func (s *directionalStore) appendMultiple(vid uint32, e Edge) error {
	vm := s.meta.get(vid)
	if vm.size >= vm.capacity {
		newCapacity := vm.capacity * 2
		if newCapacity == 0 {
			newCapacity = initialRunCapacity
		}
		newOff, _, err := s.overflow.Append(make([]byte, newCapacity*s.recSize))
		if err != nil {
			return err
		}
		if vm.size > 0 {
			old := s.overflow.Slice(vm.off, vm.size*s.recSize)
			copy(s.overflow.Slice(newOff, vm.size*s.recSize), old)
		}
		vm.off = newOff
		vm.capacity = newCapacity
	}
	rec := s.overflow.Slice(vm.off+vm.size*s.recSize, s.recSize)
	if err := encodeEdge(rec, s.triplet, e); err != nil {
		return err
	}
	vm.size++
	return s.meta.set(vid, vm)
}

// reserve pre-allocates capacity neighbor slots for vid if it has none
// yet, letting a bulk loader that already knows vid's final degree (a
// prior counting pass) skip appendMultiple's doubling growth entirely.
// A no-op if vid already has a run (appendMultiple keeps growing it).
func (s *directionalStore) reserve(vid uint32, capacity uint32) error {
	if capacity == 0 {
		return nil
	}
	vm := s.meta.get(vid)
	if vm.capacity > 0 {
		return nil
	}
	off, _, err := s.overflow.Append(make([]byte, capacity*s.recSize))
	if err != nil {
		return err
	}
	return s.meta.set(vid, vertexMeta{off: off, capacity: capacity, size: 0})
}

// setData updates the first neighbor record matching nbr, re-encoding
// its data and ts in place.
func (s *directionalStore) setData(vid, nbr uint32, e Edge) error {
	if s.strategy == schema.StrategyNone {
		return errs.New(errs.KindDisallowed, "csr.directionalStore.setData", nil)
	}
	vm := s.meta.get(vid)
	buf := s.overflow.Slice(vm.off, vm.size*s.recSize)
	for i := uint32(0); i < vm.size; i++ {
		rec := buf[i*s.recSize : (i+1)*s.recSize]
		existing, err := decodeEdge(rec, s.triplet)
		if err != nil {
			return err
		}
		if existing.Neighbor == nbr {
			e.Neighbor = nbr
			return encodeEdge(rec, s.triplet, e)
		}
	}
	return errs.New(errs.KindNotFound, "csr.directionalStore.setData", nil)
}

// sortByData reorders vid's neighbor run using less, used by compaction
// when the schema requests a sort-on-compaction property (§4.4).
func (s *directionalStore) sortByData(vid uint32, less func(a, b Edge) bool) error {
	vm := s.meta.get(vid)
	if vm.size < 2 {
		return nil
	}
	edges, err := s.edgesFromMeta(vm)
	if err != nil {
		return err
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	})
	buf := s.overflow.Slice(vm.off, vm.size*s.recSize)
	for i, e := range edges {
		if err := encodeEdge(buf[uint32(i)*s.recSize:(uint32(i)+1)*s.recSize], s.triplet, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *directionalStore) edgesFromMeta(vm vertexMeta) ([]Edge, error) {
	buf := s.overflow.Slice(vm.off, vm.size*s.recSize)
	out := make([]Edge, vm.size)
	for i := uint32(0); i < vm.size; i++ {
		e, err := decodeEdge(buf[i*s.recSize:(i+1)*s.recSize], s.triplet)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (s *directionalStore) sync() error {
	if err := s.meta.sync(); err != nil {
		return err
	}
	return s.overflow.Sync()
}

func (s *directionalStore) close() error {
	if err := s.meta.close(); err != nil {
		return err
	}
	return s.overflow.Close()
}
