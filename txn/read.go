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

package txn

import (
	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/csr"
	"github.com/erigontech/graphcore/internal/pkindex"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

// ReadTxn is a lock-free read-only handle over the graph as it stood at
// ts (§5): BeginRead never blocks, and since commits only ever append
// new vids/rows/edges the state a ReadTxn was handed remains valid for
// every vid/field/edge that existed at ts, for as long as the handle is
// held. rowCap bounds vid visibility to what BeginRead captured, and ts
// bounds edge visibility the same way via each csr.Edge's own Ts: both
// guard against a later commit's extensions leaking into an
// already-open snapshot.
type ReadTxn struct {
	state  *State
	ts     uint32
	rowCap map[uint8]uint32
}

// Timestamp reports the commit version this snapshot was taken at.
func (r *ReadTxn) Timestamp() uint32 { return r.ts }

func (r *ReadTxn) label(name string) (*LabelState, error) {
	ls, ok := r.state.labelByName(name)
	if !ok {
		return nil, errs.New(errs.KindNotFound, "txn.ReadTxn", nil)
	}
	return ls, nil
}

func (r *ReadTxn) triplet(key schema.Key) (*TripletState, error) {
	ts, ok := r.state.Triplets[key]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "txn.ReadTxn", nil)
	}
	return ts, nil
}

// VertexCount reports label's row population as of this snapshot's
// begin, not the table's live population.
func (r *ReadTxn) VertexCount(label string) (uint32, error) {
	ls, err := r.label(label)
	if err != nil {
		return 0, err
	}
	return r.rowCap[ls.VL.Label], nil
}

// checkVid reports kOutOfRange if vid was appended to label after this
// snapshot's begin.
func (r *ReadTxn) checkVid(label uint8, vid uint32, op string) error {
	if vid >= r.rowCap[label] {
		return errs.New(errs.KindOutOfRange, op, nil)
	}
	return nil
}

// Lookup resolves label's primary key oid to its internal vid. An oid
// inserted after this snapshot's begin reports kNotFound, the same as
// an oid that was never inserted.
func (r *ReadTxn) Lookup(label string, oid value.Any) (vid uint32, err error) {
	ls, err := r.label(label)
	if err != nil {
		return 0, err
	}
	o, err := pkindex.OIDFromAny(ls.VL.KeyType, oid)
	if err != nil {
		return 0, err
	}
	vid, ok := ls.Index.Lookup(o)
	if !ok || vid >= r.rowCap[ls.VL.Label] {
		return 0, errs.New(errs.KindNotFound, "txn.ReadTxn.Lookup", nil)
	}
	return vid, nil
}

// PrimaryKey reverses vid back to label's external oid.
func (r *ReadTxn) PrimaryKey(label string, vid uint32) (value.Any, error) {
	ls, err := r.label(label)
	if err != nil {
		return value.Any{}, err
	}
	if err := r.checkVid(ls.VL.Label, vid, "txn.ReadTxn.PrimaryKey"); err != nil {
		return value.Any{}, err
	}
	o, ok := ls.Index.Reverse(vid)
	if !ok {
		return value.Any{}, errs.New(errs.KindNotFound, "txn.ReadTxn.PrimaryKey", nil)
	}
	return o.Any(), nil
}

// GetVertexField reads column colName of label's vid.
func (r *ReadTxn) GetVertexField(label string, vid uint32, colName string) (value.Any, error) {
	ls, err := r.label(label)
	if err != nil {
		return value.Any{}, err
	}
	if err := r.checkVid(ls.VL.Label, vid, "txn.ReadTxn.GetVertexField"); err != nil {
		return value.Any{}, err
	}
	col := ls.VL.PropertyIndex(colName)
	if col < 0 {
		return value.Any{}, errs.New(errs.KindNotFound, "txn.ReadTxn.GetVertexField", nil)
	}
	return ls.Table.Get(vid, col)
}

// ResolveVertexString resolves a value.Any previously returned by
// GetVertexField for colName back to a Go string.
func (r *ReadTxn) ResolveVertexString(label string, colName string, a value.Any) (string, error) {
	ls, err := r.label(label)
	if err != nil {
		return "", err
	}
	col := ls.VL.PropertyIndex(colName)
	if col < 0 {
		return "", errs.New(errs.KindNotFound, "txn.ReadTxn.ResolveVertexString", nil)
	}
	s, ok := ls.Table.ResolveString(col, a)
	if !ok {
		return "", errs.New(errs.KindTypeMismatch, "txn.ReadTxn.ResolveVertexString", nil)
	}
	return s, nil
}

// OutEdges returns srcVid's outgoing edges for the (srcLabel, dstLabel,
// edgeLabel) triplet, as of this snapshot's ts: an edge appended, or
// whose data was last set, after ts is not observed (§5).
func (r *ReadTxn) OutEdges(key schema.Key, srcVid uint32) ([]csr.Edge, error) {
	ts, err := r.triplet(key)
	if err != nil {
		return nil, err
	}
	edges, err := ts.Adj.OutEdges(srcVid)
	if err != nil {
		return nil, err
	}
	return visibleAsOf(edges, r.ts), nil
}

// InEdges returns dstVid's incoming edges for the (srcLabel, dstLabel,
// edgeLabel) triplet, as of this snapshot's ts (see OutEdges).
func (r *ReadTxn) InEdges(key schema.Key, dstVid uint32) ([]csr.Edge, error) {
	ts, err := r.triplet(key)
	if err != nil {
		return nil, err
	}
	edges, err := ts.Adj.InEdges(dstVid)
	if err != nil {
		return nil, err
	}
	return visibleAsOf(edges, r.ts), nil
}

// visibleAsOf filters edges to those committed at or before asOf,
// using the Ts every csr.Edge already carries (set on Append and
// refreshed on SetData). Returns the input slice unmodified, without
// allocating, when nothing needs filtering: the common case once a
// snapshot's edges have all settled.
func visibleAsOf(edges []csr.Edge, asOf uint32) []csr.Edge {
	visible := 0
	for _, e := range edges {
		if e.Ts <= asOf {
			visible++
		}
	}
	if visible == len(edges) {
		return edges
	}
	out := make([]csr.Edge, 0, visible)
	for _, e := range edges {
		if e.Ts <= asOf {
			out = append(out, e)
		}
	}
	return out
}
