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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

func multipleTriplet() *schema.Triplet {
	return &schema.Triplet{
		SrcLabel: "PERSON", DstLabel: "PERSON", EdgeLabel: "KNOWS",
		Properties:  []schema.Property{{Name: "since", Type: schema.PTI32}},
		OutStrategy: schema.StrategyMultiple,
		InStrategy:  schema.StrategyMultiple,
	}
}

func singleTriplet(immutable bool) *schema.Triplet {
	return &schema.Triplet{
		SrcLabel: "PERSON", DstLabel: "COMPANY", EdgeLabel: "WORKS_AT",
		OutStrategy: schema.StrategySingle,
		InStrategy:  schema.StrategyMultiple,
		Immutable:   immutable,
	}
}

func noneTriplet() *schema.Triplet {
	return &schema.Triplet{
		SrcLabel: "PERSON", DstLabel: "PERSON", EdgeLabel: "BLOCKED",
		OutStrategy: schema.StrategyNone,
		InStrategy:  schema.StrategyNone,
	}
}

func key(t *schema.Triplet) schema.Key {
	return schema.Key{SrcLabel: t.SrcLabel, DstLabel: t.DstLabel, EdgeLabel: t.EdgeLabel}
}

func TestMultipleAppendAndIterate(t *testing.T) {
	root := t.TempDir()
	tr := multipleTriplet()
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer adj.Close()

	require.NoError(t, adj.Append(0, 1, value.FromI32(2020), 10))
	require.NoError(t, adj.Append(0, 2, value.FromI32(2021), 11))
	require.NoError(t, adj.Append(0, 3, value.FromI32(2022), 12))

	out, err := adj.OutEdges(0)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, uint32(1), out[0].Neighbor)
	require.Equal(t, uint32(3), out[2].Neighbor)
	yr, ok := out[1].Data.AsI32()
	require.True(t, ok)
	require.Equal(t, int32(2021), yr)

	in1, err := adj.InEdges(1)
	require.NoError(t, err)
	require.Len(t, in1, 1)
	require.Equal(t, uint32(0), in1[0].Neighbor)
}

func TestMultipleGrowsBeyondInitialCapacity(t *testing.T) {
	root := t.TempDir()
	tr := multipleTriplet()
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer adj.Close()

	const n = 50
	for i := uint32(0); i < n; i++ {
		require.NoError(t, adj.Append(0, i+1, value.FromI32(int32(i)), i))
	}
	out, err := adj.OutEdges(0)
	require.NoError(t, err)
	require.Len(t, out, n)
	for i, e := range out {
		require.Equal(t, uint32(i+1), e.Neighbor)
	}
}

func TestSingleStrategyOverwritesUnlessImmutable(t *testing.T) {
	root := t.TempDir()
	tr := singleTriplet(false)
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer adj.Close()

	require.NoError(t, adj.Append(0, 5, value.Empty(), 1))
	require.NoError(t, adj.Append(0, 6, value.Empty(), 2))
	out, err := adj.OutEdges(0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, uint32(6), out[0].Neighbor)
}

func TestSingleImmutableConflictsOnSecondAppend(t *testing.T) {
	root := t.TempDir()
	tr := singleTriplet(true)
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer adj.Close()

	require.NoError(t, adj.Append(0, 5, value.Empty(), 1))
	err = adj.Append(0, 6, value.Empty(), 2)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindConflict))
}

func TestNoneStrategyDisallowsAppend(t *testing.T) {
	root := t.TempDir()
	tr := noneTriplet()
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer adj.Close()

	err = adj.Append(0, 1, value.Empty(), 1)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindDisallowed))
}

func TestSetDataUpdatesFirstMatch(t *testing.T) {
	root := t.TempDir()
	tr := multipleTriplet()
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer adj.Close()

	require.NoError(t, adj.Append(0, 1, value.FromI32(1), 1))
	require.NoError(t, adj.Append(0, 2, value.FromI32(2), 2))

	require.NoError(t, adj.SetData(0, 2, value.FromI32(99), 5))
	out, err := adj.OutEdges(0)
	require.NoError(t, err)
	v, ok := out[1].Data.AsI32()
	require.True(t, ok)
	require.Equal(t, int32(99), v)

	err = adj.SetData(0, 77, value.FromI32(1), 1)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindNotFound))
}

func TestSortOutByData(t *testing.T) {
	root := t.TempDir()
	tr := multipleTriplet()
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer adj.Close()

	require.NoError(t, adj.Append(0, 1, value.FromI32(30), 1))
	require.NoError(t, adj.Append(0, 2, value.FromI32(10), 2))
	require.NoError(t, adj.Append(0, 3, value.FromI32(20), 3))

	less := func(a, b Edge) bool {
		av, _ := a.Data.AsI32()
		bv, _ := b.Data.AsI32()
		return av < bv
	}
	require.NoError(t, adj.SortOutByData(0, less))

	out, err := adj.OutEdges(0)
	require.NoError(t, err)
	require.Len(t, out, 3)
	var vals []int32
	for _, e := range out {
		v, _ := e.Data.AsI32()
		vals = append(vals, v)
	}
	require.Equal(t, []int32{10, 20, 30}, vals)
}

func TestReserveOutSkipsDoublingGrowth(t *testing.T) {
	root := t.TempDir()
	tr := multipleTriplet()
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer adj.Close()

	require.NoError(t, adj.ReserveOut(0, 3))
	for i := uint32(0); i < 3; i++ {
		require.NoError(t, adj.Append(0, i+1, value.FromI32(int32(i)), 1))
	}
	out, err := adj.OutEdges(0)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// A second reserve on an already-allocated vid is a no-op, matching
	// appendMultiple's own growth policy for a run that already exists.
	require.NoError(t, adj.ReserveOut(0, 100))
	require.NoError(t, adj.Append(0, 4, value.FromI32(3), 1))
	out, err = adj.OutEdges(0)
	require.NoError(t, err)
	require.Len(t, out, 4)
}

func TestReopenPreservesAdjacency(t *testing.T) {
	root := t.TempDir()
	tr := multipleTriplet()
	adj, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	require.NoError(t, adj.Append(0, 1, value.FromI32(2020), 10))
	require.NoError(t, adj.Sync())
	require.NoError(t, adj.Close())

	reopened, err := Open(root, 1, key(tr), tr)
	require.NoError(t, err)
	defer reopened.Close()
	out, err := reopened.OutEdges(0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, uint32(1), out[0].Neighbor)
}
