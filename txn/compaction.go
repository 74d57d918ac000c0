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
	"github.com/erigontech/graphcore/internal/wal"
	"github.com/erigontech/graphcore/value"
)

// CompactionTxn runs maintenance between snapshot versions under the
// same write slot an UpdateTxn would hold, so neither can observe the
// other mid-flight (§5). Its one job today is applying each triplet's
// sort_on_compaction property (§4.4/§4.9): reordering a neighbor run by
// a named edge-data property rather than insertion order.
type CompactionTxn struct {
	mgr   *TxManager
	state *State
}

// SortTriplets reorders every triplet declaring a sort_on_compaction
// property, across every vid with an out- or in-run, by ascending value
// of that property. Triplets whose edge data is indirected through the
// shared edge table (no fixed-width inline representation) are skipped:
// there is no Edge.Data to compare without resolving through that table.
func (c *CompactionTxn) SortTriplets() error {
	for key, ts := range c.state.Triplets {
		name := ts.Triplet.SortOnCompaction
		if name == "" || !ts.Triplet.HasFixedEdgeData() {
			continue
		}
		col := ts.Triplet.PropertyIndex(name)
		if col < 0 {
			return errs.New(errs.KindNotFound, "txn.CompactionTxn.SortTriplets", nil)
		}
		less := func(a, b csr.Edge) bool {
			cmp, ok := value.Compare(a.Data, b.Data, nil)
			return ok && cmp < 0
		}

		srcLabel, ok := c.state.labelByName(key.SrcLabel)
		if !ok {
			return errs.New(errs.KindCorrupt, "txn.CompactionTxn.SortTriplets", nil)
		}
		for vid := uint32(0); vid < srcLabel.Table.Rows(); vid++ {
			if err := ts.Adj.SortOutByData(vid, less); err != nil {
				return err
			}
		}

		dstLabel, ok := c.state.labelByName(key.DstLabel)
		if !ok {
			return errs.New(errs.KindCorrupt, "txn.CompactionTxn.SortTriplets", nil)
		}
		for vid := uint32(0); vid < dstLabel.Table.Rows(); vid++ {
			if err := ts.Adj.SortInByData(vid, less); err != nil {
				return err
			}
		}
	}
	return nil
}

// Commit writes a CompactionMarker record noting newVersion and
// releases the write slot. It does not itself advance the visible
// timestamp: that happens when the caller publishes newVersion's
// snapshot (graph.Open / a future reopen), not when compaction runs.
func (c *CompactionTxn) Commit(newVersion uint32) error {
	defer c.mgr.writeSlot.Unlock()
	if c.mgr.wal == nil {
		return nil
	}
	payload := wal.EncodeCompactionMarker(wal.CompactionMarker{Version: newVersion})
	if err := c.mgr.wal.Append(wal.RecordCompaction, c.mgr.ts.Load(), payload); err != nil {
		return errs.New(errs.KindIOError, "txn.CompactionTxn.Commit", err)
	}
	c.mgr.log.Info().Uint32("version", newVersion).Msg("compaction marker written")
	return nil
}

// Abort releases the write slot without writing a marker.
func (c *CompactionTxn) Abort() {
	c.mgr.writeSlot.Unlock()
}
