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

// Package bulkload implements the parallel bulk loader of §4.9: given an
// external RecordBatchSupplier per vertex label and edge triplet, it
// populates the primary-key indexer, vertex table and CSR adjacency
// directly, bypassing the WAL/update-transaction path entirely.
package bulkload

import "github.com/c2h5oh/datasize"

// Method mirrors the original loading_config's method_ field: whether a
// bulk load is building a fresh data root, appending to one already
// containing data, or replacing it outright. Loader.Run does not read
// it: every run adds to the state it is given.
type Method int

const (
	MethodInit Method = iota
	MethodAppend
	MethodOverwrite
)

// VertexLoadingConfig names one vertex label's batch source. Batches'
// column 0 is the label's primary key; the remaining columns align 1:1
// with schema.VertexLabel.Properties in order (§4.9 step 1).
type VertexLoadingConfig struct {
	Label   string
	Batches RecordBatchSupplier
}

// EdgeLoadingConfig names one triplet's batch source and which two
// columns carry the endpoint primary keys; the remaining columns align
// 1:1 with schema.Triplet.Properties in order.
type EdgeLoadingConfig struct {
	SrcLabel, DstLabel, EdgeLabel string
	SrcKeyColumn, DstKeyColumn    int
	Batches                      RecordBatchSupplier
}

// LoadingConfig is the complete tunable surface of a bulk-load run
// (SPEC_FULL.md §4 "loading_config-style tunables"): batching/worker
// knobs plus the per-label/per-triplet sources themselves.
type LoadingConfig struct {
	Method Method

	// BatchSize is advisory: it's the caller's RecordBatchSupplier that
	// decides how many rows each Next() call returns. Workers just
	// consume whatever size arrives.
	BatchSize       int
	WorkerCount     int
	VertexChunkSize uint32
	EdgeChunkSize   uint32

	// StagingArenaSize is carried in the config but not read by the
	// loader: each worker's buffer of resolved edges, kept ahead of the
	// CSR-reservation pass, grows without a size bound.
	StagingArenaSize datasize.ByteSize

	// SkipOnError, keyed by vertex-label name or "src_edge_dst" triplet
	// key string, opts that source out of the spec's fail-fast default:
	// malformed rows are logged and dropped instead of aborting the load.
	SkipOnError map[string]bool

	Vertices []VertexLoadingConfig
	Edges    []EdgeLoadingConfig
}

func (c LoadingConfig) workerCount() int {
	if c.WorkerCount > 0 {
		return c.WorkerCount
	}
	return 1
}

func (c LoadingConfig) skipOnError(key string) bool {
	return c.SkipOnError[key]
}
