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
	"github.com/erigontech/graphcore/internal/wal"
	"github.com/erigontech/graphcore/value"
)

// ApplyOpStream decodes a RecordUpdate payload exactly as UpdateTxn.Commit
// wrote it and applies it to state in §4.7's apply order. Used by
// graph.Open to replay every WAL record newer than the opened snapshot
// version (§4.8), before any TxManager exists to hand out write slots.
func ApplyOpStream(state *State, ts uint32, payload []byte) error {
	stream, err := decodeOpStream(state, payload)
	if err != nil {
		return err
	}
	u := &UpdateTxn{state: state, stream: stream}
	return u.apply(ts)
}

func decodeOpStream(state *State, payload []byte) (*opStream, error) {
	stream := newOpStream()
	d := value.NewDecoder(payload)
	for d.Remaining() > 0 {
		tag, err := wal.DecodeOpTag(d)
		if err != nil {
			return nil, err
		}
		switch tag {
		case wal.OpAddVertex:
			op, err := wal.DecodeAddVertex(d, state.Schema)
			if err != nil {
				return nil, err
			}
			stream.vertices = append(stream.vertices, op)
		case wal.OpSetVertexField:
			op, err := wal.DecodeSetVertexField(d)
			if err != nil {
				return nil, err
			}
			stream.fields = append(stream.fields, op)
		case wal.OpAddEdge:
			op, err := wal.DecodeAddEdge(d)
			if err != nil {
				return nil, err
			}
			stream.edges = append(stream.edges, op)
		case wal.OpSetEdgeData:
			op, err := wal.DecodeSetEdgeData(d)
			if err != nil {
				return nil, err
			}
			stream.edgeData = append(stream.edgeData, op)
		default:
			return nil, errs.New(errs.KindCorrupt, "txn.decodeOpStream", nil)
		}
	}
	return stream, nil
}
