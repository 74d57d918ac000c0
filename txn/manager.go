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
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/erigontech/graphcore/internal/wal"
)

// TxManager owns the single write slot and the monotonic commit
// timestamp counter (§5): BeginUpdate/BeginCompaction block until any
// prior update/compaction has Committed or Aborted; BeginRead never
// blocks and always returns a consistent snapshot because the writer
// only ever grows structures readers haven't seen yet.
type TxManager struct {
	state *State
	wal    *wal.Writer
	log    zerolog.Logger

	writeSlot sync.Mutex
	ts        atomic.Uint32 // store-release by the writer, acquire-load by readers
}

// NewManager builds a TxManager over state, appending commits to w and
// starting the visible timestamp at startTs (the version Replay
// returned, or the snapshot's version if the WAL was empty). A zero
// logger value is valid and discards all output.
func NewManager(state *State, w *wal.Writer, startTs uint32, log zerolog.Logger) *TxManager {
	m := &TxManager{state: state, wal: w, log: log}
	m.ts.Store(startTs)
	return m
}

// Timestamp returns the most recently committed timestamp.
func (m *TxManager) Timestamp() uint32 { return m.ts.Load() }

// BeginRead returns a read-only snapshot handle. Safe to call from any
// goroutine; never blocks on the write slot (§5). Captures each label's
// row population at this instant, not just ts: vids/rows a later writer
// appends must stay invisible to this handle for its entire lifetime
// (§5's "structures it extends ... are not visible to readers whose
// snapshot predates the extension"), and vid is the only per-vertex
// ordinal available to bound that against.
func (m *TxManager) BeginRead() *ReadTxn {
	rowCap := make(map[uint8]uint32, len(m.state.Labels))
	for label, ls := range m.state.Labels {
		rowCap[label] = ls.Table.Rows()
	}
	return &ReadTxn{state: m.state, ts: m.ts.Load(), rowCap: rowCap}
}

// BeginUpdate acquires the write slot and returns a handle staging ops
// for Commit/Abort. The slot is held until one of those is called;
// callers must not leak an UpdateTxn without resolving it (§5 treats an
// abandoned handle as Abort, but this implementation requires an
// explicit call since Go has no destructor to hook that on).
func (m *TxManager) BeginUpdate() *UpdateTxn {
	m.writeSlot.Lock()
	return &UpdateTxn{mgr: m, state: m.state, stream: newOpStream()}
}

// BeginCompaction acquires the write slot for maintenance that must not
// race with an UpdateTxn (sort_on_compaction reordering, §4.4/§4.9).
func (m *TxManager) BeginCompaction() *CompactionTxn {
	m.writeSlot.Lock()
	return &CompactionTxn{mgr: m, state: m.state}
}
