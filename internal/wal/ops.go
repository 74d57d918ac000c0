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
	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

// Op tags (§4.7, §6's "Edge op stream encoding"). Each staged
// transaction op is appended to the op stream prefixed by one of these.
const (
	OpAddVertex      = 0x00
	OpAddEdge        = 0x01
	OpSetVertexField = 0x02
	OpSetEdgeData    = 0x03
)

// AddVertexOp inserts or merges one vertex (§4.7).
type AddVertexOp struct {
	Label uint8
	OID   value.Any
	Props []value.Any
}

// AddEdgeOp buffers one edge insert (§4.7).
type AddEdgeOp struct {
	SrcLabel  uint8
	SrcOID    value.Any
	DstLabel  uint8
	DstOID    value.Any
	EdgeLabel uint8
	EdgeData  value.Any
}

// SetVertexFieldOp stages a column-level vertex update (§4.7).
type SetVertexFieldOp struct {
	Label uint8
	OID   value.Any
	Col   int32
	Value value.Any
}

// SetEdgeDataOp stages an edge-data update (§4.7). Dir is 1 for
// outgoing, 0 for incoming, matching §6's encoding.
type SetEdgeDataOp struct {
	Dir       uint8
	Label     uint8
	VidOID    value.Any
	NbrLabel  uint8
	NbrOID    value.Any
	EdgeLabel uint8
	Value     value.Any
}

// encodeAny writes a to the op stream. value.Encode already handles
// every tag except an arena-backed TagLongStr (it has no arena to
// resolve through); callers staging an op must first convert any such
// value to a self-contained one via value.FromOwnedString (typically
// after resolving it through the vertex table's column arena), so by
// the time it reaches the WAL it is always replayable into a freshly
// opened graph.
func encodeAny(e *value.Encoder, a value.Any) error {
	if a.Tag() == value.TagLongStr {
		s, ok := a.AsString(nil)
		if !ok {
			return errs.New(errs.KindBadInput, "wal.encodeAny", nil)
		}
		value.EncodeString(e, s)
		return nil
	}
	value.Encode(e, a)
	return nil
}

// EncodeAddVertex appends op to e, tagged OpAddVertex.
func EncodeAddVertex(e *value.Encoder, op AddVertexOp) error {
	e.WriteByte(OpAddVertex)
	e.WriteByte(op.Label)
	if err := encodeAny(e, op.OID); err != nil {
		return err
	}
	for _, p := range op.Props {
		if err := encodeAny(e, p); err != nil {
			return err
		}
	}
	return nil
}

// DecodeAddVertex reads an AddVertexOp's body (tag already consumed).
// sch resolves how many property columns the vertex label declares.
func DecodeAddVertex(d *value.Decoder, sch *schema.Schema) (AddVertexOp, error) {
	label, err := d.ReadByte()
	if err != nil {
		return AddVertexOp{}, err
	}
	vl, ok := sch.VertexLabelByID(label)
	if !ok {
		return AddVertexOp{}, errs.New(errs.KindBadInput, "wal.DecodeAddVertex", nil)
	}
	oid, err := value.Decode(d)
	if err != nil {
		return AddVertexOp{}, err
	}
	props := make([]value.Any, len(vl.Properties))
	for i := range props {
		props[i], err = value.Decode(d)
		if err != nil {
			return AddVertexOp{}, err
		}
	}
	return AddVertexOp{Label: label, OID: oid, Props: props}, nil
}

// EncodeAddEdge appends op to e, tagged OpAddEdge.
func EncodeAddEdge(e *value.Encoder, op AddEdgeOp) error {
	e.WriteByte(OpAddEdge)
	e.WriteByte(op.SrcLabel)
	if err := encodeAny(e, op.SrcOID); err != nil {
		return err
	}
	e.WriteByte(op.DstLabel)
	if err := encodeAny(e, op.DstOID); err != nil {
		return err
	}
	e.WriteByte(op.EdgeLabel)
	return encodeAny(e, op.EdgeData)
}

// DecodeAddEdge reads an AddEdgeOp's body (tag already consumed).
func DecodeAddEdge(d *value.Decoder) (AddEdgeOp, error) {
	var op AddEdgeOp
	var err error
	if op.SrcLabel, err = d.ReadByte(); err != nil {
		return AddEdgeOp{}, err
	}
	if op.SrcOID, err = value.Decode(d); err != nil {
		return AddEdgeOp{}, err
	}
	if op.DstLabel, err = d.ReadByte(); err != nil {
		return AddEdgeOp{}, err
	}
	if op.DstOID, err = value.Decode(d); err != nil {
		return AddEdgeOp{}, err
	}
	if op.EdgeLabel, err = d.ReadByte(); err != nil {
		return AddEdgeOp{}, err
	}
	if op.EdgeData, err = value.Decode(d); err != nil {
		return AddEdgeOp{}, err
	}
	return op, nil
}

// EncodeSetVertexField appends op to e, tagged OpSetVertexField.
func EncodeSetVertexField(e *value.Encoder, op SetVertexFieldOp) error {
	e.WriteByte(OpSetVertexField)
	e.WriteByte(op.Label)
	if err := encodeAny(e, op.OID); err != nil {
		return err
	}
	e.WriteUint32(uint32(op.Col))
	return encodeAny(e, op.Value)
}

// DecodeSetVertexField reads a SetVertexFieldOp's body (tag already
// consumed).
func DecodeSetVertexField(d *value.Decoder) (SetVertexFieldOp, error) {
	var op SetVertexFieldOp
	var err error
	if op.Label, err = d.ReadByte(); err != nil {
		return SetVertexFieldOp{}, err
	}
	if op.OID, err = value.Decode(d); err != nil {
		return SetVertexFieldOp{}, err
	}
	col, err := d.ReadUint32()
	if err != nil {
		return SetVertexFieldOp{}, err
	}
	op.Col = int32(col)
	if op.Value, err = value.Decode(d); err != nil {
		return SetVertexFieldOp{}, err
	}
	return op, nil
}

// EncodeSetEdgeData appends op to e, tagged OpSetEdgeData.
func EncodeSetEdgeData(e *value.Encoder, op SetEdgeDataOp) error {
	e.WriteByte(OpSetEdgeData)
	e.WriteByte(op.Dir)
	e.WriteByte(op.Label)
	if err := encodeAny(e, op.VidOID); err != nil {
		return err
	}
	e.WriteByte(op.NbrLabel)
	if err := encodeAny(e, op.NbrOID); err != nil {
		return err
	}
	e.WriteByte(op.EdgeLabel)
	return encodeAny(e, op.Value)
}

// DecodeSetEdgeData reads a SetEdgeDataOp's body (tag already consumed).
func DecodeSetEdgeData(d *value.Decoder) (SetEdgeDataOp, error) {
	var op SetEdgeDataOp
	var err error
	if op.Dir, err = d.ReadByte(); err != nil {
		return SetEdgeDataOp{}, err
	}
	if op.Label, err = d.ReadByte(); err != nil {
		return SetEdgeDataOp{}, err
	}
	if op.VidOID, err = value.Decode(d); err != nil {
		return SetEdgeDataOp{}, err
	}
	if op.NbrLabel, err = d.ReadByte(); err != nil {
		return SetEdgeDataOp{}, err
	}
	if op.NbrOID, err = value.Decode(d); err != nil {
		return SetEdgeDataOp{}, err
	}
	if op.EdgeLabel, err = d.ReadByte(); err != nil {
		return SetEdgeDataOp{}, err
	}
	if op.Value, err = value.Decode(d); err != nil {
		return SetEdgeDataOp{}, err
	}
	return op, nil
}

// DecodeOpTag reads the op-stream tag byte (§4.7: 0x00-0x03) that
// determines which Decode* function to call next.
func DecodeOpTag(d *value.Decoder) (byte, error) {
	return d.ReadByte()
}

// CompactionMarker is a supplemented WAL record (RecordCompaction)
// noting a compaction produced a new snapshot version. Not part of the
// op stream apply path.
type CompactionMarker struct {
	Version uint32
}

func EncodeCompactionMarker(m CompactionMarker) []byte {
	e := value.NewEncoder(make([]byte, 0, 4))
	e.WriteUint32(m.Version)
	return e.Bytes()
}

func DecodeCompactionMarker(payload []byte) (CompactionMarker, error) {
	d := value.NewDecoder(payload)
	v, err := d.ReadUint32()
	if err != nil {
		return CompactionMarker{}, err
	}
	return CompactionMarker{Version: v}, nil
}
