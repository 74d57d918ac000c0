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

package vertextable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

func testLabel() *schema.VertexLabel {
	return &schema.VertexLabel{
		Name:    "PERSON",
		KeyType: schema.KeyI64,
		Properties: []schema.Property{
			{Name: "age", Type: schema.PTI32},
			{Name: "name", Type: schema.PTString},
			{Name: "nickname", Type: schema.PTString, Sparse: true},
		},
	}
}

func TestAppendGetSetRoundTrip(t *testing.T) {
	root := t.TempDir()
	tbl, err := Open(root, 1, testLabel())
	require.NoError(t, err)
	defer tbl.Close()

	vid, err := tbl.AppendDefaultRow()
	require.NoError(t, err)
	require.Equal(t, uint32(0), vid)

	require.NoError(t, tbl.Set(vid, 0, value.FromI32(42)))
	got, err := tbl.Get(vid, 0)
	require.NoError(t, err)
	age, ok := got.AsI32()
	require.True(t, ok)
	require.Equal(t, int32(42), age)

	longName := "a-fairly-long-person-name-that-exceeds-inline-capacity"
	require.NoError(t, tbl.Set(vid, 1, value.FromOwnedString(longName)))
	gotName, err := tbl.Get(vid, 1)
	require.NoError(t, err)
	resolved, ok := tbl.ResolveString(1, gotName)
	require.True(t, ok)
	require.Equal(t, longName, resolved)

	require.NoError(t, tbl.Set(vid, 2, value.FromOwnedString("nick")))
	gotNick, err := tbl.Get(vid, 2)
	require.NoError(t, err)
	nick, ok := tbl.ResolveString(2, gotNick)
	require.True(t, ok)
	require.Equal(t, "nick", nick)
}

func TestAppendDefaultRowAssignsSequentialVids(t *testing.T) {
	root := t.TempDir()
	tbl, err := Open(root, 1, testLabel())
	require.NoError(t, err)
	defer tbl.Close()

	for i := uint32(0); i < 5; i++ {
		vid, err := tbl.AppendDefaultRow()
		require.NoError(t, err)
		require.Equal(t, i, vid)
	}
	require.Equal(t, uint32(5), tbl.Rows())
}

func TestResizeGrowsTailOnly(t *testing.T) {
	root := t.TempDir()
	tbl, err := Open(root, 1, testLabel())
	require.NoError(t, err)
	defer tbl.Close()

	require.NoError(t, tbl.Resize(100))
	require.Equal(t, uint32(100), tbl.Rows())

	require.NoError(t, tbl.Set(99, 0, value.FromI32(7)))
	got, err := tbl.Get(99, 0)
	require.NoError(t, err)
	v, ok := got.AsI32()
	require.True(t, ok)
	require.Equal(t, int32(7), v)
}

func TestReopenPreservesRowsAndValues(t *testing.T) {
	root := t.TempDir()
	tbl, err := Open(root, 1, testLabel())
	require.NoError(t, err)
	vid, err := tbl.AppendDefaultRow()
	require.NoError(t, err)
	require.NoError(t, tbl.Set(vid, 0, value.FromI32(99)))
	require.NoError(t, tbl.Sync())
	require.NoError(t, tbl.Close())

	reopened, err := Open(root, 1, testLabel())
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, uint32(1), reopened.Rows())
	got, err := reopened.Get(vid, 0)
	require.NoError(t, err)
	v, ok := got.AsI32()
	require.True(t, ok)
	require.Equal(t, int32(99), v)
}

func TestIngestRowAppliesAllColumns(t *testing.T) {
	root := t.TempDir()
	tbl, err := Open(root, 1, testLabel())
	require.NoError(t, err)
	defer tbl.Close()

	vid, err := tbl.AppendDefaultRow()
	require.NoError(t, err)

	e2 := value.NewEncoder(nil)
	value.Encode(e2, value.FromI32(21))
	value.EncodeString(e2, "ingested-name")
	value.EncodeString(e2, "sparse-nick")

	d := value.NewDecoder(e2.Bytes())
	require.NoError(t, tbl.IngestRow(vid, d))

	age, err := tbl.Get(vid, 0)
	require.NoError(t, err)
	v, ok := age.AsI32()
	require.True(t, ok)
	require.Equal(t, int32(21), v)

	name, err := tbl.Get(vid, 1)
	require.NoError(t, err)
	s, ok := tbl.ResolveString(1, name)
	require.True(t, ok)
	require.Equal(t, "ingested-name", s)

	nick, err := tbl.Get(vid, 2)
	require.NoError(t, err)
	s2, ok := tbl.ResolveString(2, nick)
	require.True(t, ok)
	require.Equal(t, "sparse-nick", s2)
}
