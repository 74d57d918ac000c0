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

// Package csr implements the dual in/out compressed-sparse-row adjacency
// store of §4.4: per (src-label, dst-label, edge-label) triplet, one of
// three strategies (None, Single, Multiple), each maintaining a paired
// out-edge and in-edge neighbor array with overflow-doubling growth.
package csr

import (
	"os"
	"path/filepath"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

// Adjacency is the complete dual-indexed store for one triplet.
type Adjacency struct {
	key     schema.Key
	triplet *schema.Triplet
	out     *directionalStore
	in      *directionalStore
}

// Open opens (creating as needed) the four files backing one triplet's
// adjacency under root's snapshot version directory: oe_*.{deg,nbr} and
// ie_*.{deg,nbr}.
func Open(root string, version uint32, key schema.Key, t *schema.Triplet) (*Adjacency, error) {
	dir := filenames.SnapshotDir(root, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.New(errs.KindIOError, "csr.Open", err)
	}

	oePrefix := filepath.Join(dir, filenames.OEPrefix(key.SrcLabel, key.DstLabel, key.EdgeLabel))
	iePrefix := filepath.Join(dir, filenames.IEPrefix(key.SrcLabel, key.DstLabel, key.EdgeLabel))

	out, err := openDirectionalStore(oePrefix+".deg", oePrefix+".nbr", t, t.OutStrategy)
	if err != nil {
		return nil, err
	}
	in, err := openDirectionalStore(iePrefix+".deg", iePrefix+".nbr", t, t.InStrategy)
	if err != nil {
		out.close()
		return nil, err
	}
	return &Adjacency{key: key, triplet: t, out: out, in: in}, nil
}

// OutEdges returns srcVid's outgoing edges.
func (a *Adjacency) OutEdges(srcVid uint32) ([]Edge, error) { return a.out.edges(srcVid) }

// InEdges returns dstVid's incoming edges.
func (a *Adjacency) InEdges(dstVid uint32) ([]Edge, error) { return a.in.edges(dstVid) }

// ReserveOut pre-allocates srcVid's outgoing run to capacity, used by a
// bulk loader that has already counted each vid's out-degree (§4.9) so
// Append never pays appendMultiple's doubling-growth cost during load.
func (a *Adjacency) ReserveOut(srcVid, capacity uint32) error {
	return a.out.reserve(srcVid, capacity)
}

// ReserveIn is ReserveOut for the incoming direction.
func (a *Adjacency) ReserveIn(dstVid, capacity uint32) error {
	return a.in.reserve(dstVid, capacity)
}

// Append records one edge srcVid -> dstVid in both directional stores
// (§4.4): srcVid's out-run gains a {dstVid, data, ts} record, dstVid's
// in-run gains a {srcVid, data, ts} record.
func (a *Adjacency) Append(srcVid, dstVid uint32, data value.Any, ts uint32) error {
	if err := a.out.append(srcVid, Edge{Neighbor: dstVid, Data: data, Ts: ts}); err != nil {
		return err
	}
	return a.in.append(dstVid, Edge{Neighbor: srcVid, Data: data, Ts: ts})
}

// SetData updates the existing srcVid->dstVid edge's data and ts in
// both directional stores. Errors with kNotFound if absent under
// Single, or updates the first match under Multiple (§4.4).
func (a *Adjacency) SetData(srcVid, dstVid uint32, data value.Any, ts uint32) error {
	if err := a.out.setData(srcVid, dstVid, Edge{Data: data, Ts: ts}); err != nil {
		return err
	}
	return a.in.setData(dstVid, srcVid, Edge{Data: data, Ts: ts})
}

// SortOutByData reorders srcVid's outgoing run by less, used by
// compaction when the schema names a sort_on_compaction property.
func (a *Adjacency) SortOutByData(srcVid uint32, less func(a, b Edge) bool) error {
	return a.out.sortByData(srcVid, less)
}

// SortInByData reorders dstVid's incoming run by less.
func (a *Adjacency) SortInByData(dstVid uint32, less func(a, b Edge) bool) error {
	return a.in.sortByData(dstVid, less)
}

// Sync flushes both directional stores to disk.
func (a *Adjacency) Sync() error {
	if err := a.out.sync(); err != nil {
		return err
	}
	return a.in.sync()
}

// Close releases both directional stores' mapped regions.
func (a *Adjacency) Close() error {
	if err := a.out.close(); err != nil {
		return err
	}
	return a.in.close()
}
