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
	"sort"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/pkindex"
	"github.com/erigontech/graphcore/internal/wal"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

// vkey identifies a vertex staged earlier in the same transaction, so a
// later AddVertex/SetVertexField targeting the same oid folds into the
// already-staged row instead of emitting a redundant op (§4.7's
// "insert or merge" semantics apply within a transaction too).
type vkey struct {
	label uint8
	oid   string
}

func oidKey(label uint8, o pkindex.OID) vkey {
	return vkey{label: label, oid: string(o.Bytes())}
}

// opStream buffers one update transaction's ops in apply order (§4.7):
// vertex inserts, then field updates, then edge inserts, then edge-data
// updates. Encode emits every op tagged for wal.Replay to dispatch by.
type opStream struct {
	vertices  []wal.AddVertexOp
	vertexIdx map[vkey]int
	fields    []wal.SetVertexFieldOp
	edges     []wal.AddEdgeOp
	edgeData  []wal.SetEdgeDataOp
}

func newOpStream() *opStream {
	return &opStream{vertexIdx: make(map[vkey]int)}
}

// opCount reports the transaction's op_count (§4.6 step 1): the total
// number of staged ops across all four kinds.
func (s *opStream) opCount() int {
	return len(s.vertices) + len(s.fields) + len(s.edges) + len(s.edgeData)
}

func (s *opStream) encode() ([]byte, error) {
	e := value.NewEncoder(nil)
	for _, op := range s.vertices {
		if err := wal.EncodeAddVertex(e, op); err != nil {
			return nil, err
		}
	}
	for _, op := range s.fields {
		if err := wal.EncodeSetVertexField(e, op); err != nil {
			return nil, err
		}
	}
	for _, op := range s.edges {
		if err := wal.EncodeAddEdge(e, op); err != nil {
			return nil, err
		}
	}
	for _, op := range s.edgeData {
		if err := wal.EncodeSetEdgeData(e, op); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

// UpdateTxn stages §4.7's ops against an in-memory overlay; nothing
// becomes visible to readers until Commit appends the op stream to the
// WAL and applies it to the shared State. Holds the TxManager's write
// slot for its entire lifetime: callers must resolve it with Commit or
// Abort, never let it go out of scope silently.
type UpdateTxn struct {
	mgr    *TxManager
	state  *State
	stream *opStream
}

func (u *UpdateTxn) vertexLabel(name string) (*schema.VertexLabel, error) {
	vl, ok := u.state.Schema.VertexLabelByName(name)
	if !ok {
		return nil, errs.New(errs.KindNotFound, "txn.UpdateTxn", nil)
	}
	return vl, nil
}

// AddVertex stages an insert-or-merge of label's oid with fields keyed
// by property name (missing properties keep their default/empty value,
// or — if oid already denotes a vertex staged earlier in this same
// transaction — keep whatever that earlier stage set).
func (u *UpdateTxn) AddVertex(label string, oid value.Any, fields map[string]value.Any) error {
	vl, err := u.vertexLabel(label)
	if err != nil {
		return err
	}
	o, err := pkindex.OIDFromAny(vl.KeyType, oid)
	if err != nil {
		return err
	}
	props := make([]value.Any, len(vl.Properties))
	for name, v := range fields {
		idx := vl.PropertyIndex(name)
		if idx < 0 {
			return errs.New(errs.KindNotFound, "txn.UpdateTxn.AddVertex", nil)
		}
		props[idx] = v
	}

	key := oidKey(vl.Label, o)
	if idx, staged := u.stream.vertexIdx[key]; staged {
		existing := &u.stream.vertices[idx]
		for i, p := range props {
			if p.Tag() != value.TagEmpty {
				existing.Props[i] = p
			}
		}
		return nil
	}
	u.stream.vertexIdx[key] = len(u.stream.vertices)
	u.stream.vertices = append(u.stream.vertices, wal.AddVertexOp{Label: vl.Label, OID: oid, Props: props})
	return nil
}

// SetVertexField stages a single-column update of label's oid.
func (u *UpdateTxn) SetVertexField(label string, oid value.Any, col string, val value.Any) error {
	vl, err := u.vertexLabel(label)
	if err != nil {
		return err
	}
	colIdx := vl.PropertyIndex(col)
	if colIdx < 0 {
		return errs.New(errs.KindNotFound, "txn.UpdateTxn.SetVertexField", nil)
	}
	o, err := pkindex.OIDFromAny(vl.KeyType, oid)
	if err != nil {
		return err
	}
	if idx, staged := u.stream.vertexIdx[oidKey(vl.Label, o)]; staged {
		u.stream.vertices[idx].Props[colIdx] = val
		return nil
	}
	u.stream.fields = append(u.stream.fields, wal.SetVertexFieldOp{
		Label: vl.Label, OID: oid, Col: int32(colIdx), Value: val,
	})
	return nil
}

// AddEdge stages srcOID -> dstOID under key, carrying edgeData as the
// triplet's inline (or record-view) value (§4.4/§4.7). Both endpoints
// must already denote a vertex, committed or staged earlier in this same
// transaction (§4.7's endpoint-missing kNotFound); resolving them here,
// before staging the op, keeps an unresolvable edge from ever reaching
// the WAL.
func (u *UpdateTxn) AddEdge(key schema.Key, srcOID, dstOID, edgeData value.Any) error {
	if _, ok := u.state.Schema.TripletByKey(key); !ok {
		return errs.New(errs.KindNotFound, "txn.UpdateTxn.AddEdge", nil)
	}
	srcVL, err := u.vertexLabel(key.SrcLabel)
	if err != nil {
		return err
	}
	dstVL, err := u.vertexLabel(key.DstLabel)
	if err != nil {
		return err
	}
	edgeID, ok := u.state.Schema.EdgeLabelID(key.EdgeLabel)
	if !ok {
		return errs.New(errs.KindNotFound, "txn.UpdateTxn.AddEdge", nil)
	}
	if err := u.checkVertexKnown("txn.UpdateTxn.AddEdge", srcVL, srcOID); err != nil {
		return err
	}
	if err := u.checkVertexKnown("txn.UpdateTxn.AddEdge", dstVL, dstOID); err != nil {
		return err
	}
	u.stream.edges = append(u.stream.edges, wal.AddEdgeOp{
		SrcLabel: srcVL.Label, SrcOID: srcOID,
		DstLabel: dstVL.Label, DstOID: dstOID,
		EdgeLabel: edgeID, EdgeData: edgeData,
	})
	return nil
}

// checkVertexKnown reports kNotFound unless oid is either already
// committed to vl's index or staged earlier in this same transaction
// (the overlay AddVertex/AddEdge resolution of §4.7).
func (u *UpdateTxn) checkVertexKnown(op string, vl *schema.VertexLabel, oid value.Any) error {
	o, err := pkindex.OIDFromAny(vl.KeyType, oid)
	if err != nil {
		return err
	}
	if _, staged := u.stream.vertexIdx[oidKey(vl.Label, o)]; staged {
		return nil
	}
	ls := u.state.Labels[vl.Label]
	if _, ok := ls.Index.Lookup(o); ok {
		return nil
	}
	return errs.New(errs.KindNotFound, op, nil)
}

// SetOutEdgeData stages an update of the data carried by the
// srcOID -> dstOID edge under key, keyed off the outgoing run (§4.7's
// dir=1 encoding).
func (u *UpdateTxn) SetOutEdgeData(key schema.Key, srcOID, dstOID, data value.Any) error {
	return u.setEdgeData(key, 1, srcOID, dstOID, data)
}

// SetInEdgeData stages the same update keyed off the incoming run
// (§4.7's dir=0 encoding); srcOID and dstOID keep their usual meaning.
func (u *UpdateTxn) SetInEdgeData(key schema.Key, srcOID, dstOID, data value.Any) error {
	return u.setEdgeData(key, 0, srcOID, dstOID, data)
}

func (u *UpdateTxn) setEdgeData(key schema.Key, dir uint8, srcOID, dstOID, data value.Any) error {
	if _, ok := u.state.Schema.TripletByKey(key); !ok {
		return errs.New(errs.KindNotFound, "txn.UpdateTxn.SetEdgeData", nil)
	}
	srcVL, err := u.vertexLabel(key.SrcLabel)
	if err != nil {
		return err
	}
	dstVL, err := u.vertexLabel(key.DstLabel)
	if err != nil {
		return err
	}
	edgeID, ok := u.state.Schema.EdgeLabelID(key.EdgeLabel)
	if !ok {
		return errs.New(errs.KindNotFound, "txn.UpdateTxn.SetEdgeData", nil)
	}
	if err := u.checkVertexKnown("txn.UpdateTxn.SetEdgeData", srcVL, srcOID); err != nil {
		return err
	}
	if err := u.checkVertexKnown("txn.UpdateTxn.SetEdgeData", dstVL, dstOID); err != nil {
		return err
	}
	op := wal.SetEdgeDataOp{Dir: dir, EdgeLabel: edgeID, Value: data}
	if dir == 1 {
		op.Label, op.VidOID = srcVL.Label, srcOID
		op.NbrLabel, op.NbrOID = dstVL.Label, dstOID
	} else {
		op.Label, op.VidOID = dstVL.Label, dstOID
		op.NbrLabel, op.NbrOID = srcVL.Label, srcOID
	}
	u.stream.edgeData = append(u.stream.edgeData, op)
	return nil
}

// Commit appends the staged op stream to the WAL, applies it to the
// shared State in §4.7's order, publishes the new commit timestamp, and
// releases the write slot. The returned timestamp is what a subsequent
// BeginRead will observe.
func (u *UpdateTxn) Commit() (uint32, error) {
	defer u.mgr.writeSlot.Unlock()

	if u.stream.opCount() == 0 {
		return u.mgr.ts.Load(), nil
	}

	payload, err := u.stream.encode()
	if err != nil {
		return 0, err
	}
	newTs := u.mgr.ts.Load() + 1
	if u.mgr.wal != nil {
		if err := u.mgr.wal.Append(wal.RecordUpdate, newTs, payload); err != nil {
			return 0, err
		}
	}
	if err := u.apply(newTs); err != nil {
		return 0, err
	}
	u.mgr.ts.Store(newTs)
	u.mgr.log.Debug().Uint32("ts", newTs).Msg("committed update transaction")
	return newTs, nil
}

// Abort releases the write slot without touching the WAL or State.
func (u *UpdateTxn) Abort() {
	u.mgr.writeSlot.Unlock()
}

func (u *UpdateTxn) apply(ts uint32) error {
	for _, op := range u.stream.vertices {
		if err := u.applyAddVertex(op); err != nil {
			return err
		}
	}
	for _, op := range u.stream.fields {
		if err := u.applySetVertexField(op); err != nil {
			return err
		}
	}
	if err := u.applyAddEdges(ts); err != nil {
		return err
	}
	for _, op := range u.stream.edgeData {
		if err := u.applySetEdgeData(op, ts); err != nil {
			return err
		}
	}
	return nil
}

func (u *UpdateTxn) applyAddVertex(op wal.AddVertexOp) error {
	vl, ok := u.state.Schema.VertexLabelByID(op.Label)
	if !ok {
		return errs.New(errs.KindCorrupt, "txn.UpdateTxn.apply", nil)
	}
	ls := u.state.Labels[op.Label]
	o, err := pkindex.OIDFromAny(vl.KeyType, op.OID)
	if err != nil {
		return err
	}
	vid, isNew, err := ls.Index.Insert(o)
	if err != nil {
		return err
	}
	if isNew {
		newVid, err := ls.Table.AppendDefaultRow()
		if err != nil {
			return err
		}
		if newVid != vid {
			return errs.New(errs.KindCorrupt, "txn.UpdateTxn.apply", nil)
		}
	}
	for col, p := range op.Props {
		if p.Tag() == value.TagEmpty {
			continue
		}
		if err := ls.Table.Set(vid, col, p); err != nil {
			return err
		}
	}
	return nil
}

func (u *UpdateTxn) applySetVertexField(op wal.SetVertexFieldOp) error {
	vl, ok := u.state.Schema.VertexLabelByID(op.Label)
	if !ok {
		return errs.New(errs.KindCorrupt, "txn.UpdateTxn.apply", nil)
	}
	ls := u.state.Labels[op.Label]
	o, err := pkindex.OIDFromAny(vl.KeyType, op.OID)
	if err != nil {
		return err
	}
	vid, ok := ls.Index.Lookup(o)
	if !ok {
		return errs.New(errs.KindNotFound, "txn.UpdateTxn.apply", nil)
	}
	return ls.Table.Set(vid, int(op.Col), op.Value)
}

type resolvedEdge struct {
	key            schema.Key
	srcVid, dstVid uint32
	data           value.Any
}

func (u *UpdateTxn) applyAddEdges(ts uint32) error {
	if len(u.stream.edges) == 0 {
		return nil
	}
	resolved := make([]resolvedEdge, 0, len(u.stream.edges))
	for _, op := range u.stream.edges {
		_, key, ok := u.state.Schema.TripletByIDs(op.SrcLabel, op.DstLabel, op.EdgeLabel)
		if !ok {
			return errs.New(errs.KindCorrupt, "txn.UpdateTxn.apply", nil)
		}
		srcVid, err := u.resolveVid(op.SrcLabel, op.SrcOID)
		if err != nil {
			return err
		}
		dstVid, err := u.resolveVid(op.DstLabel, op.DstOID)
		if err != nil {
			return err
		}
		resolved = append(resolved, resolvedEdge{key: key, srcVid: srcVid, dstVid: dstVid, data: op.EdgeData})
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].srcVid < resolved[j].srcVid })
	for _, r := range resolved {
		tstate := u.state.Triplets[r.key]
		if tstate == nil {
			return errs.New(errs.KindCorrupt, "txn.UpdateTxn.apply", nil)
		}
		if err := tstate.Adj.Append(r.srcVid, r.dstVid, r.data, ts); err != nil {
			return err
		}
	}
	return nil
}

func (u *UpdateTxn) applySetEdgeData(op wal.SetEdgeDataOp, ts uint32) error {
	var key schema.Key
	var srcVid, dstVid uint32
	var err error
	if op.Dir == 1 {
		_, key, _ = u.state.Schema.TripletByIDs(op.Label, op.NbrLabel, op.EdgeLabel)
		if srcVid, err = u.resolveVid(op.Label, op.VidOID); err != nil {
			return err
		}
		if dstVid, err = u.resolveVid(op.NbrLabel, op.NbrOID); err != nil {
			return err
		}
	} else {
		_, key, _ = u.state.Schema.TripletByIDs(op.NbrLabel, op.Label, op.EdgeLabel)
		if dstVid, err = u.resolveVid(op.Label, op.VidOID); err != nil {
			return err
		}
		if srcVid, err = u.resolveVid(op.NbrLabel, op.NbrOID); err != nil {
			return err
		}
	}
	triplet := u.state.Triplets[key]
	if triplet == nil {
		return errs.New(errs.KindCorrupt, "txn.UpdateTxn.apply", nil)
	}
	return triplet.Adj.SetData(srcVid, dstVid, op.Value, ts)
}

func (u *UpdateTxn) resolveVid(label uint8, oid value.Any) (uint32, error) {
	vl, ok := u.state.Schema.VertexLabelByID(label)
	if !ok {
		return 0, errs.New(errs.KindCorrupt, "txn.UpdateTxn.apply", nil)
	}
	ls := u.state.Labels[label]
	o, err := pkindex.OIDFromAny(vl.KeyType, oid)
	if err != nil {
		return 0, err
	}
	vid, ok := ls.Index.Lookup(o)
	if !ok {
		return 0, errs.New(errs.KindNotFound, "txn.UpdateTxn.apply", nil)
	}
	return vid, nil
}
