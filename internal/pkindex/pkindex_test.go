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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

func TestHashIndexerInsertIdempotent(t *testing.T) {
	h := NewHashIndexer(schema.KeyI64)
	vid1, isNew1, err := h.Insert(OIDFromI64(1))
	require.NoError(t, err)
	require.True(t, isNew1)
	require.Equal(t, uint32(0), vid1)

	vid2, isNew2, err := h.Insert(OIDFromI64(2))
	require.NoError(t, err)
	require.True(t, isNew2)
	require.Equal(t, uint32(1), vid2)

	vid1Again, isNewAgain, err := h.Insert(OIDFromI64(1))
	require.NoError(t, err)
	require.False(t, isNewAgain)
	require.Equal(t, vid1, vid1Again)

	got, ok := h.Lookup(OIDFromI64(2))
	require.True(t, ok)
	require.Equal(t, vid2, got)

	oid, ok := h.Reverse(0)
	require.True(t, ok)
	require.True(t, oid.Equal(OIDFromI64(1)))

	_, ok = h.Lookup(OIDFromI64(999))
	require.False(t, ok)
}

func TestHashIndexerReverseIsInjective(t *testing.T) {
	h := NewHashIndexer(schema.KeyI64)
	const n = 500
	for i := int64(0); i < n; i++ {
		_, _, err := h.Insert(OIDFromI64(i))
		require.NoError(t, err)
	}
	for vid := uint32(0); vid < n; vid++ {
		oid, ok := h.Reverse(vid)
		require.True(t, ok)
		back, ok := h.Lookup(oid)
		require.True(t, ok)
		require.Equal(t, vid, back)
	}
}

func TestPerfectHashMatchesHashIndexer(t *testing.T) {
	h := NewHashIndexer(schema.KeyString)
	var oids []OID
	for i := 0; i < 300; i++ {
		o := OIDFromString(fmt.Sprintf("key-%d", i))
		_, _, err := h.Insert(o)
		require.NoError(t, err)
		oids = append(oids, o)
	}

	p, err := BuildPerfectHash(schema.KeyString, oids)
	require.NoError(t, err)
	require.Equal(t, uint32(len(oids)), p.Size())

	seen := make(map[uint32]bool)
	for _, o := range oids {
		vid, ok := p.Lookup(o)
		require.True(t, ok)
		require.False(t, seen[vid], "perfect hash must be injective")
		seen[vid] = true

		back, ok := p.Reverse(vid)
		require.True(t, ok)
		require.True(t, back.Equal(o))
	}

	_, ok := p.Lookup(OIDFromString("not-present"))
	require.False(t, ok)
}

func TestPerfectHashRejectsDuplicates(t *testing.T) {
	_, err := BuildPerfectHash(schema.KeyI64, []OID{OIDFromI64(1), OIDFromI64(1)})
	require.Error(t, err)
}

func TestPerfectHashSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	var oids []OID
	for i := 0; i < 64; i++ {
		oids = append(oids, OIDFromI64(int64(i*7)))
	}
	p, err := BuildPerfectHash(schema.KeyI64, oids)
	require.NoError(t, err)
	require.NoError(t, p.Save(dir, "PERSON"))

	loaded, err := Load(dir, "PERSON")
	require.NoError(t, err)
	require.Equal(t, p.Size(), loaded.Size())
	for _, o := range oids {
		vid, ok := loaded.Lookup(o)
		require.True(t, ok)
		back, ok := loaded.Reverse(vid)
		require.True(t, ok)
		require.True(t, back.Equal(o))
	}
}

func TestPerfectHashStringSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	var oids []OID
	for i := 0; i < 40; i++ {
		oids = append(oids, OIDFromString(fmt.Sprintf("user-%03d", i)))
	}
	p, err := BuildPerfectHash(schema.KeyString, oids)
	require.NoError(t, err)
	require.NoError(t, p.Save(dir, "USER"))

	loaded, err := Load(dir, "USER")
	require.NoError(t, err)
	for _, o := range oids {
		vid, ok := loaded.Lookup(o)
		require.True(t, ok)
		back, ok := loaded.Reverse(vid)
		require.True(t, ok)
		require.Equal(t, o.String(), back.String())
	}
}

func TestShardOfIsDeterministic(t *testing.T) {
	o := OIDFromI64(42)
	a := ShardOf(o, 8)
	b := ShardOf(o, 8)
	require.Equal(t, a, b)
	require.GreaterOrEqual(t, a, 0)
	require.Less(t, a, 8)
}

func TestOIDAnyRoundTrip(t *testing.T) {
	cases := []OID{
		OIDFromI32(-7), OIDFromU32(7), OIDFromI64(-123456789),
		OIDFromU64(123456789), OIDFromString("hello"),
	}
	for _, o := range cases {
		back, err := OIDFromAny(o.Kind(), o.Any())
		require.NoError(t, err)
		require.True(t, o.Equal(back))
	}
}

func TestOIDFromAnyRejectsMismatchedTag(t *testing.T) {
	_, err := OIDFromAny(schema.KeyI64, value.FromOwnedString("not an int"))
	require.Error(t, err)
}
