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

package wal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

func testSchema() *schema.Schema {
	sch := &schema.Schema{
		VertexLabels: []schema.VertexLabel{
			{
				Name: "PERSON", Label: 0, PrimaryKey: "id", KeyType: schema.KeyI64,
				Properties: []schema.Property{
					{Name: "age", Type: schema.PTI32},
					{Name: "name", Type: schema.PTString},
				},
			},
		},
	}
	if err := sch.Build(); err != nil {
		panic(err)
	}
	return sch
}

func TestAddVertexOpRoundTrip(t *testing.T) {
	sch := testSchema()
	op := AddVertexOp{
		Label: 0,
		OID:   value.FromI64(42),
		Props: []value.Any{value.FromI32(30), value.FromOwnedString("alice")},
	}
	e := value.NewEncoder(nil)
	require.NoError(t, EncodeAddVertex(e, op))

	d := value.NewDecoder(e.Bytes())
	tag, err := DecodeOpTag(d)
	require.NoError(t, err)
	require.Equal(t, byte(OpAddVertex), tag)

	got, err := DecodeAddVertex(d, sch)
	require.NoError(t, err)
	require.Equal(t, op.Label, got.Label)
	oid, ok := got.OID.AsI64()
	require.True(t, ok)
	require.Equal(t, int64(42), oid)
	require.Len(t, got.Props, 2)
	age, ok := got.Props[0].AsI32()
	require.True(t, ok)
	require.Equal(t, int32(30), age)
	name, ok := got.Props[1].AsString(nil)
	require.True(t, ok)
	require.Equal(t, "alice", name)
}

func TestAddEdgeOpRoundTrip(t *testing.T) {
	op := AddEdgeOp{
		SrcLabel: 0, SrcOID: value.FromI64(1),
		DstLabel: 0, DstOID: value.FromI64(2),
		EdgeLabel: 1, EdgeData: value.FromI32(2020),
	}
	e := value.NewEncoder(nil)
	require.NoError(t, EncodeAddEdge(e, op))

	d := value.NewDecoder(e.Bytes())
	tag, err := DecodeOpTag(d)
	require.NoError(t, err)
	require.Equal(t, byte(OpAddEdge), tag)

	got, err := DecodeAddEdge(d)
	require.NoError(t, err)
	require.Equal(t, op.SrcLabel, got.SrcLabel)
	require.Equal(t, op.DstLabel, got.DstLabel)
	v, ok := got.EdgeData.AsI32()
	require.True(t, ok)
	require.Equal(t, int32(2020), v)
}

func TestSetVertexFieldOpRoundTrip(t *testing.T) {
	op := SetVertexFieldOp{Label: 0, OID: value.FromI64(7), Col: 3, Value: value.FromBool(true)}
	e := value.NewEncoder(nil)
	require.NoError(t, EncodeSetVertexField(e, op))

	d := value.NewDecoder(e.Bytes())
	tag, err := DecodeOpTag(d)
	require.NoError(t, err)
	require.Equal(t, byte(OpSetVertexField), tag)

	got, err := DecodeSetVertexField(d)
	require.NoError(t, err)
	require.Equal(t, int32(3), got.Col)
	v, ok := got.Value.AsBool()
	require.True(t, ok)
	require.True(t, v)
}

func TestSetEdgeDataOpRoundTrip(t *testing.T) {
	op := SetEdgeDataOp{
		Dir: 1, Label: 0, VidOID: value.FromI64(1),
		NbrLabel: 0, NbrOID: value.FromI64(2),
		EdgeLabel: 1, Value: value.FromI32(99),
	}
	e := value.NewEncoder(nil)
	require.NoError(t, EncodeSetEdgeData(e, op))

	d := value.NewDecoder(e.Bytes())
	tag, err := DecodeOpTag(d)
	require.NoError(t, err)
	require.Equal(t, byte(OpSetEdgeData), tag)

	got, err := DecodeSetEdgeData(d)
	require.NoError(t, err)
	require.Equal(t, uint8(1), got.Dir)
	v, ok := got.Value.AsI32()
	require.True(t, ok)
	require.Equal(t, int32(99), v)
}

func TestCompactionMarkerRoundTrip(t *testing.T) {
	payload := EncodeCompactionMarker(CompactionMarker{Version: 5})
	m, err := DecodeCompactionMarker(payload)
	require.NoError(t, err)
	require.Equal(t, uint32(5), m.Version)
}

func TestEncodeAnyRejectsArenaBackedLongString(t *testing.T) {
	arenaView := value.FromLongString(4, 5)
	e := value.NewEncoder(nil)
	err := encodeAny(e, arenaView)
	require.Error(t, err)
}
