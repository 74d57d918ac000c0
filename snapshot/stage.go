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

package snapshot

import (
	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/csr"
	"github.com/erigontech/graphcore/internal/filenames"
	"github.com/erigontech/graphcore/internal/pkindex"
	"github.com/erigontech/graphcore/internal/vertextable"
	"github.com/erigontech/graphcore/txn"
)

// vidRemap translates between a label's old (pre-freeze) vid space and
// the vid space pkindex.LabelIndex.Freeze just assigned: order[newVid]
// is the old vid holding that row's data; inverse is its left inverse,
// sized to the old population, for remapping a neighbor field found
// inside an existing CSR run.
type vidRemap struct {
	order   []uint32
	inverse []uint32
}

func newVidRemap(frozen *pkindex.PerfectHashIndexer, old *pkindex.LabelIndex, oldPop uint32) (*vidRemap, error) {
	n := frozen.Size()
	order := make([]uint32, n)
	inverse := make([]uint32, oldPop)
	for newVid := uint32(0); newVid < n; newVid++ {
		oid, ok := frozen.Reverse(newVid)
		if !ok {
			return nil, errs.New(errs.KindCorrupt, "snapshot.newVidRemap", nil)
		}
		oldVid, ok := old.Lookup(oid)
		if !ok {
			return nil, errs.New(errs.KindCorrupt, "snapshot.newVidRemap", nil)
		}
		order[newVid] = oldVid
		inverse[oldVid] = newVid
	}
	return &vidRemap{order: order, inverse: inverse}, nil
}

func (r *vidRemap) toNew(oldVid uint32) uint32 { return r.inverse[oldVid] }

// Stage materializes state's current contents into a brand-new
// snapshots/<version> directory (§4.9 step 3, §4.10 step 1). Every
// label's primary-key indexer is frozen into a PerfectHashIndexer
// (pkindex.LabelIndex.Freeze), its vertex table rewritten row-for-row
// into that indexer's vid order (vertextable.Freeze), and every
// triplet's adjacency rebuilt from scratch with neighbor vids remapped
// the same way. Stage never touches VERSION: the staged directory only
// becomes live once a caller follows up with Promote(version).
func (m *Manager) Stage(state *txn.State, version uint32) error {
	remaps := make(map[uint8]*vidRemap, len(state.Labels))

	for labelID, ls := range state.Labels {
		frozenIdx, err := ls.Index.Freeze()
		if err != nil {
			return err
		}
		remap, err := newVidRemap(frozenIdx, ls.Index, ls.Table.Rows())
		if err != nil {
			return err
		}
		if err := vertextable.Freeze(m.root, version, ls.VL, ls.Table, remap.order); err != nil {
			return err
		}
		dir := filenames.SnapshotDir(m.root, version)
		if err := frozenIdx.Save(dir, ls.VL.Name); err != nil {
			return err
		}
		remaps[labelID] = remap
		m.log.Info().Str("label", ls.VL.Name).Uint32("rows", frozenIdx.Size()).Msg("vertex label staged")
	}

	for key, tstate := range state.Triplets {
		srcVL, ok := state.Schema.VertexLabelByName(key.SrcLabel)
		if !ok {
			return errs.New(errs.KindNotFound, "snapshot.Manager.Stage", nil)
		}
		dstVL, ok := state.Schema.VertexLabelByName(key.DstLabel)
		if !ok {
			return errs.New(errs.KindNotFound, "snapshot.Manager.Stage", nil)
		}
		srcRemap := remaps[srcVL.Label]
		dstRemap := remaps[dstVL.Label]

		fresh, err := csr.Open(m.root, version, key, tstate.Triplet)
		if err != nil {
			return err
		}
		edgeCount := 0
		for newSrcVid, oldSrcVid := range srcRemap.order {
			edges, err := tstate.Adj.OutEdges(oldSrcVid)
			if err != nil {
				fresh.Close()
				return err
			}
			for _, e := range edges {
				newDstVid := dstRemap.toNew(e.Neighbor)
				if err := fresh.Append(uint32(newSrcVid), newDstVid, e.Data, e.Ts); err != nil {
					fresh.Close()
					return err
				}
				edgeCount++
			}
		}
		if err := fresh.Sync(); err != nil {
			fresh.Close()
			return err
		}
		if err := fresh.Close(); err != nil {
			return err
		}
		m.log.Info().Str("triplet", key.String()).Int("edges", edgeCount).Msg("edge triplet staged")
	}

	return nil
}
