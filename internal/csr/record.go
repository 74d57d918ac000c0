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
	"encoding/binary"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

// Edge is one neighbor record returned by an edge iterator (§4.4):
// neighbor vid, its data (inline Any, or a record-view into the shared
// edge table when the triplet has no fixed-width inline representation),
// and the commit timestamp it was written at.
type Edge struct {
	Neighbor uint32
	Data     value.Any
	Ts       uint32
}

// edgeDataSize is the fixed-width payload of one inline-data record:
// wide enough for any value.Encode'd fixed-width Any (tag + up to 8
// bytes), matching internal/vertextable's dense numeric slot width.
const edgeDataSize = 9

// rowIndexDataSize is the payload width when edge data is indirected
// through the edge table (§4.4): just a uint32 row index.
const rowIndexDataSize = 4

// recordSize reports the byte width of one neighbor-array record for
// a triplet: 4 (neighbor vid) + 4 (ts) + its data payload.
func recordSize(t *schema.Triplet) uint32 {
	if len(t.Properties) == 0 {
		return 8
	}
	if t.HasFixedEdgeData() {
		return 8 + edgeDataSize
	}
	return 8 + rowIndexDataSize
}

const edgeTableLayout = "edge_data"

func encodeEdge(buf []byte, t *schema.Triplet, e Edge) error {
	binary.LittleEndian.PutUint32(buf[0:4], e.Neighbor)
	binary.LittleEndian.PutUint32(buf[4:8], e.Ts)
	if len(t.Properties) == 0 {
		return nil
	}
	if t.HasFixedEdgeData() {
		enc := value.NewEncoder(make([]byte, 0, edgeDataSize))
		value.Encode(enc, e.Data)
		b := enc.Bytes()
		if len(b) > edgeDataSize {
			return errs.New(errs.KindOutOfRange, "csr.encodeEdge", nil)
		}
		for i := 8; i < 8+edgeDataSize; i++ {
			buf[i] = 0
		}
		copy(buf[8:8+edgeDataSize], b)
		return nil
	}
	rv, ok := e.Data.AsRecordView()
	if !ok {
		return errs.New(errs.KindTypeMismatch, "csr.encodeEdge", nil)
	}
	binary.LittleEndian.PutUint32(buf[8:8+rowIndexDataSize], rv.RowIndex)
	return nil
}

func decodeEdge(buf []byte, t *schema.Triplet) (Edge, error) {
	e := Edge{
		Neighbor: binary.LittleEndian.Uint32(buf[0:4]),
		Ts:       binary.LittleEndian.Uint32(buf[4:8]),
	}
	if len(t.Properties) == 0 {
		e.Data = value.Empty()
		return e, nil
	}
	if t.HasFixedEdgeData() {
		d := value.NewDecoder(buf[8 : 8+edgeDataSize])
		a, err := value.Decode(d)
		if err != nil {
			return Edge{}, errs.New(errs.KindCorrupt, "csr.decodeEdge", err)
		}
		e.Data = a
		return e, nil
	}
	rowIndex := binary.LittleEndian.Uint32(buf[8 : 8+rowIndexDataSize])
	e.Data = value.FromRecordView(edgeTableLayout, rowIndex)
	return e, nil
}
