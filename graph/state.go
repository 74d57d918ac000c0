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

package graph

import (
	"github.com/erigontech/graphcore/internal/csr"
	"github.com/erigontech/graphcore/internal/filenames"
	"github.com/erigontech/graphcore/internal/pkindex"
	"github.com/erigontech/graphcore/internal/vertextable"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/txn"
)

// openState opens every label's index/table and every triplet's
// adjacency at version, assembling a *txn.State ready to hand to
// txn.NewManager, txn.ApplyOpStream replay, or bulkload.NewLoader. When
// promoted is false (a fresh data root awaiting its first bulk load)
// every label opens with no frozen indexer and version is 0.
func openState(root string, version uint32, promoted bool, sch *schema.Schema) (*txn.State, error) {
	state := &txn.State{
		Schema:   sch,
		Labels:   make(map[uint8]*txn.LabelState, len(sch.VertexLabels)),
		Triplets: make(map[schema.Key]*txn.TripletState, len(sch.Triplets)),
	}

	for i := range sch.VertexLabels {
		vl := &sch.VertexLabels[i]

		var frozen *pkindex.PerfectHashIndexer
		if promoted {
			var err error
			frozen, err = pkindex.Load(filenames.SnapshotDir(root, version), vl.Name)
			if err != nil {
				closeState(state)
				return nil, err
			}
		}
		table, err := vertextable.Open(root, version, vl)
		if err != nil {
			closeState(state)
			return nil, err
		}
		state.Labels[vl.Label] = &txn.LabelState{
			VL:    vl,
			Index: pkindex.NewLabelIndex(vl.KeyType, frozen),
			Table: table,
		}
	}

	for i := range sch.Triplets {
		tr := &sch.Triplets[i]
		key := schema.Key{SrcLabel: tr.SrcLabel, DstLabel: tr.DstLabel, EdgeLabel: tr.EdgeLabel}
		adj, err := csr.Open(root, version, key, tr)
		if err != nil {
			closeState(state)
			return nil, err
		}
		state.Triplets[key] = &txn.TripletState{Triplet: tr, Adj: adj}
	}

	return state, nil
}

// closeState releases every Table/Adjacency opened by openState, best
// effort: used both on a clean Graph.Close and to unwind a failed Open.
func closeState(state *txn.State) error {
	var firstErr error
	for _, ls := range state.Labels {
		if ls.Table != nil {
			if err := ls.Table.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	for _, ts := range state.Triplets {
		if ts.Adj != nil {
			if err := ts.Adj.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
