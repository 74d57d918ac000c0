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
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/graphcore/internal/csr"
	"github.com/erigontech/graphcore/internal/pkindex"
	"github.com/erigontech/graphcore/internal/vertextable"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/txn"
	"github.com/erigontech/graphcore/value"
)

func testSchema() *schema.Schema {
	sch := &schema.Schema{
		VertexLabels: []schema.VertexLabel{
			{
				Name: "person", Label: 0, PrimaryKey: "id", KeyType: schema.KeyI64,
				Properties: []schema.Property{{Name: "name", Type: schema.PTString}},
			},
		},
		Triplets: []schema.Triplet{
			{
				SrcLabel: "person", DstLabel: "person", EdgeLabel: "knows",
				Properties:  []schema.Property{{Name: "since", Type: schema.PTI32}},
				InStrategy:  schema.StrategyMultiple,
				OutStrategy: schema.StrategyMultiple,
			},
		},
	}
	if err := sch.Build(); err != nil {
		panic(err)
	}
	return sch
}

func newTestState(t *testing.T, root string) *txn.State {
	t.Helper()
	sch := testSchema()
	personVL := &sch.VertexLabels[0]

	table, err := vertextable.Open(root, 0, personVL)
	require.NoError(t, err)

	ls := &txn.LabelState{VL: personVL, Index: pkindex.NewLabelIndex(schema.KeyI64, nil), Table: table}

	for i, name := range []string{"alice", "bob", "carol"} {
		vid, _, err := ls.Index.Insert(pkindex.OIDFromI64(int64(i + 1)))
		require.NoError(t, err)
		newVid, err := ls.Table.AppendDefaultRow()
		require.NoError(t, err)
		require.Equal(t, vid, newVid)
		require.NoError(t, ls.Table.Set(vid, 0, value.FromOwnedString(name)))
	}

	key := schema.Key{SrcLabel: "person", DstLabel: "person", EdgeLabel: "knows"}
	tr, ok := sch.TripletByKey(key)
	require.True(t, ok)
	adj, err := csr.Open(root, 0, key, tr)
	require.NoError(t, err)
	// alice (vid 0) knows bob (vid 1) since 2020, and carol (vid 2) since 2010.
	require.NoError(t, adj.Append(0, 1, value.FromI32(2020), 0))
	require.NoError(t, adj.Append(0, 2, value.FromI32(2010), 0))

	return &txn.State{
		Schema:   sch,
		Labels:   map[uint8]*txn.LabelState{0: ls},
		Triplets: map[schema.Key]*txn.TripletState{key: {Triplet: tr, Adj: adj}},
	}
}

func TestManagerStageAndPromote(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, root)

	version, ok, err := Open(root)
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, version)

	mgr := NewManager(root, zerolog.Nop())
	require.NoError(t, mgr.Stage(state, 1))
	require.NoError(t, mgr.Promote(1))

	version, ok, err = Open(root)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), version)

	// The staged directory holds a complete, independently openable
	// label/triplet pair, regardless of what vid order Freeze picked.
	personVL := &state.Schema.VertexLabels[0]
	staged, err := vertextable.Open(root, 1, personVL)
	require.NoError(t, err)
	defer staged.Close()
	require.Equal(t, uint32(3), staged.Rows())

	frozenIdx, err := pkindex.Load(filepath.Join(root, "snapshots", "1"), "person")
	require.NoError(t, err)
	aliceVid, ok := frozenIdx.Lookup(pkindex.OIDFromI64(1))
	require.True(t, ok)
	name, err := staged.Get(aliceVid, 0)
	require.NoError(t, err)
	s, ok := staged.ResolveString(0, name)
	require.True(t, ok)
	require.Equal(t, "alice", s)

	key := schema.Key{SrcLabel: "person", DstLabel: "person", EdgeLabel: "knows"}
	tr, _ := state.Schema.TripletByKey(key)
	stagedAdj, err := csr.Open(root, 1, key, tr)
	require.NoError(t, err)
	defer stagedAdj.Close()
	out, err := stagedAdj.OutEdges(aliceVid)
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestManagerPrune(t *testing.T) {
	root := t.TempDir()
	state := newTestState(t, root)

	mgr := NewManager(root, zerolog.Nop())
	require.NoError(t, mgr.Stage(state, 1))
	require.NoError(t, mgr.Promote(1))
	require.NoError(t, mgr.Stage(state, 2))
	require.NoError(t, mgr.Promote(2))

	require.NoError(t, mgr.Prune(map[uint32]bool{2: true}, true))

	_, err := os.Stat(filepath.Join(root, "snapshots", "1"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "snapshots", "1.tar.zst"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "snapshots", "2"))
	require.NoError(t, err)
}
