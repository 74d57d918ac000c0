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

// Package txn implements the transaction manager of §4.7/§5: a single
// logical write slot (TxManager) serializing UpdateTxn commits against
// the WAL, and lock-free ReadTxn snapshots over the same open state. A
// CompactionTxn runs maintenance (sort_on_compaction) under the same
// write slot between snapshot versions.
package txn

import (
	"github.com/erigontech/graphcore/internal/csr"
	"github.com/erigontech/graphcore/internal/pkindex"
	"github.com/erigontech/graphcore/internal/vertextable"
	"github.com/erigontech/graphcore/schema"
)

// LabelState is one vertex label's open runtime state: its schema
// entry, primary-key index, and column table.
type LabelState struct {
	VL    *schema.VertexLabel
	Index *pkindex.LabelIndex
	Table *vertextable.Table
}

// TripletState is one (src,dst,edge)-label triplet's open runtime
// state: its schema entry and dual in/out adjacency.
type TripletState struct {
	Triplet *schema.Triplet
	Adj     *csr.Adjacency
}

// State is the complete open graph the transaction manager operates
// over: every label's table/index and every triplet's adjacency,
// already `Open`'d by the caller (graph.Open wires this up from the
// schema and data-root directory layout, §6).
type State struct {
	Schema   *schema.Schema
	Labels   map[uint8]*LabelState
	Triplets map[schema.Key]*TripletState
}

func (s *State) labelByName(name string) (*LabelState, bool) {
	vl, ok := s.Schema.VertexLabelByName(name)
	if !ok {
		return nil, false
	}
	ls, ok := s.Labels[vl.Label]
	return ls, ok
}
