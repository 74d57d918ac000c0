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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/graphcore/schema"
)

func buildFrozen(t *testing.T, n int) *PerfectHashIndexer {
	t.Helper()
	oids := make([]OID, n)
	for i := range oids {
		oids[i] = OIDFromI64(int64(i))
	}
	p, err := BuildPerfectHash(schema.KeyI64, oids)
	require.NoError(t, err)
	return p
}

func TestLabelIndexLooksUpAcrossFrozenAndTail(t *testing.T) {
	frozen := buildFrozen(t, 10)
	li := NewLabelIndex(schema.KeyI64, frozen)
	require.Equal(t, uint32(10), li.FrozenPopulation())

	// Frozen vids are perfect-hash slots, not insertion order: each key
	// must resolve to the same vid the frozen indexer itself assigned.
	for i := 0; i < 10; i++ {
		vid, ok := li.Lookup(OIDFromI64(int64(i)))
		require.True(t, ok)
		want, _ := frozen.Lookup(OIDFromI64(int64(i)))
		require.Equal(t, want, vid)
	}

	vid, isNew, err := li.Insert(OIDFromI64(100))
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, uint32(10), vid)

	vid2, isNew2, err := li.Insert(OIDFromI64(100))
	require.NoError(t, err)
	require.False(t, isNew2)
	require.Equal(t, vid, vid2)

	vid3, isNew3, err := li.Insert(OIDFromI64(101))
	require.NoError(t, err)
	require.True(t, isNew3)
	require.Equal(t, uint32(11), vid3)

	require.Equal(t, uint32(12), li.Size())
}

func TestLabelIndexReverse(t *testing.T) {
	frozen := buildFrozen(t, 5)
	li := NewLabelIndex(schema.KeyI64, frozen)
	vid, _, err := li.Insert(OIDFromI64(999))
	require.NoError(t, err)

	zeroVid, ok := frozen.Lookup(OIDFromI64(0))
	require.True(t, ok)
	back, ok := li.Reverse(zeroVid)
	require.True(t, ok)
	require.Equal(t, int64(0), back.I64())

	back, ok = li.Reverse(vid)
	require.True(t, ok)
	require.Equal(t, int64(999), back.I64())

	_, ok = li.Reverse(999)
	require.False(t, ok)
}

func TestLabelIndexWithNoFrozenStructure(t *testing.T) {
	li := NewLabelIndex(schema.KeyString, nil)
	require.Equal(t, uint32(0), li.FrozenPopulation())

	vid, isNew, err := li.Insert(OIDFromString("alice"))
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, uint32(0), vid)

	_, ok := li.Reverse(0)
	require.True(t, ok)
}
