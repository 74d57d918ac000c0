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

// Package graph is the top-level programmatic surface of §6: open a
// data root, replay its WAL forward from the active snapshot, and hand
// out read/update/compaction handles and the bulk-load entry point. It
// is the one package that wires schema, snapshot, wal, and txn together
// into something a query layer can call open(data_root) on.
package graph

import (
	"github.com/rs/zerolog"

	"github.com/erigontech/graphcore/internal/filenames"
	"github.com/erigontech/graphcore/internal/wal"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/snapshot"
	"github.com/erigontech/graphcore/txn"
)

// Graph is one open data root: its schema, current in-memory state, WAL
// writer, and the transaction/snapshot managers layered over them.
type Graph struct {
	root string
	log  zerolog.Logger

	schema *schema.Schema
	state  *txn.State
	wal    *wal.Writer
	mgr    *txn.TxManager
	snap   *snapshot.Manager
}

// Open loads root's schema file, opens every label/triplet at the
// current snapshot version (or a fresh, unpromoted version 0), replays
// any WAL records committed since that version (§4.8), and returns a
// Graph ready to serve BeginRead/BeginUpdate/BeginCompaction. A zero log
// value is valid and discards all output.
func Open(root string, log zerolog.Logger) (*Graph, error) {
	sch, err := schema.Load(filenames.SchemaPath(root))
	if err != nil {
		return nil, err
	}

	version, promoted, err := snapshot.Open(root)
	if err != nil {
		return nil, err
	}

	state, err := openState(root, version, promoted, sch)
	if err != nil {
		return nil, err
	}

	w, err := wal.Open(root)
	if err != nil {
		closeState(state)
		return nil, err
	}

	startTs, err := wal.Replay(root, version, func(ts uint32, payload []byte) error {
		return txn.ApplyOpStream(state, ts, payload)
	})
	if err != nil {
		w.Close()
		closeState(state)
		return nil, err
	}

	mgr := txn.NewManager(state, w, startTs, log)
	g := &Graph{
		root:   root,
		log:    log,
		schema: sch,
		state:  state,
		wal:    w,
		mgr:    mgr,
		snap:   snapshot.NewManager(root, log),
	}
	log.Info().Uint32("snapshot_version", version).Uint32("ts", startTs).Msg("graph opened")
	return g, nil
}

// Close releases every open Table/Adjacency and the WAL writer's lock.
func (g *Graph) Close() error {
	walErr := g.wal.Close()
	stateErr := closeState(g.state)
	if walErr != nil {
		return walErr
	}
	return stateErr
}

// Schema returns the schema this Graph was opened with.
func (g *Graph) Schema() *schema.Schema { return g.schema }

// Timestamp returns the most recently committed transaction timestamp.
func (g *Graph) Timestamp() uint32 { return g.mgr.Timestamp() }

// BeginRead returns a lock-free read-only snapshot handle (§5).
func (g *Graph) BeginRead() *txn.ReadTxn { return g.mgr.BeginRead() }

// BeginUpdate acquires the write slot and returns a handle staging the
// ops of §4.7. Callers must resolve it with Commit or Abort.
func (g *Graph) BeginUpdate() *txn.UpdateTxn { return g.mgr.BeginUpdate() }

// BeginCompaction acquires the write slot for maintenance that must not
// race an UpdateTxn (§4.4/§4.9's sort_on_compaction).
func (g *Graph) BeginCompaction() *txn.CompactionTxn { return g.mgr.BeginCompaction() }
