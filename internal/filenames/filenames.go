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

// Package filenames is the single source of truth for the on-disk
// directory layout of §6:
//
//	schema
//	snapshots/
//	  VERSION
//	  <version>/
//	    vertex_map_<L>.{keys,indices,meta}
//	    vertex_table_<L>.col_<i>[.data|.items]
//	    ie_<S>_<E>_<D>.{deg,nbr}
//	    oe_<S>_<E>_<D>.{deg,nbr}
//	    e_<S>_<E>_<D>_data.*
//	wal/
//	  log_<n>
//	runtime/
//	  allocator/
//	  tmp/
//	  tails/
//	  update_txn_<ts>/
package filenames

import (
	"path/filepath"
	"strconv"
)

func SchemaPath(root string) string {
	return filepath.Join(root, "schema")
}

func SnapshotsDir(root string) string {
	return filepath.Join(root, "snapshots")
}

func SnapshotVersionPath(root string) string {
	return filepath.Join(SnapshotsDir(root), "VERSION")
}

func SnapshotVersionTmpPath(root string) string {
	return filepath.Join(SnapshotsDir(root), "VERSION.tmp")
}

func SnapshotDir(root string, version uint32) string {
	return filepath.Join(SnapshotsDir(root), strconv.FormatUint(uint64(version), 10))
}

func WalDir(root string) string {
	return filepath.Join(root, "wal")
}

func WalSegmentPath(root string, n int) string {
	return filepath.Join(WalDir(root), "log_"+strconv.Itoa(n))
}

func RuntimeDir(root string) string {
	return filepath.Join(root, "runtime")
}

func UpdateTxnDir(root string, timestamp uint32) string {
	return filepath.Join(RuntimeDir(root), "update_txn_"+strconv.FormatUint(uint64(timestamp), 10))
}

func AllocatorDir(root string) string {
	return filepath.Join(RuntimeDir(root), "allocator")
}

func TmpDir(root string) string {
	return filepath.Join(RuntimeDir(root), "tmp")
}

// TailsDir holds the mutable tail of each vertex-table column: rows
// appended beyond a snapshot's frozen population, kept out of the
// read-only snapshot directory (SPEC_FULL.md §4 "runtime tails").
func TailsDir(root string) string {
	return filepath.Join(RuntimeDir(root), "tails")
}

func BulkLoadProgressFile(root string) string {
	return filepath.Join(TmpDir(root), "bulk_load_progress.log")
}

func VertexMapPrefix(label string) string {
	return "vertex_map_" + label
}

func IEPrefix(srcLabel, dstLabel, edgeLabel string) string {
	return "ie_" + srcLabel + "_" + edgeLabel + "_" + dstLabel
}

func OEPrefix(srcLabel, dstLabel, edgeLabel string) string {
	return "oe_" + srcLabel + "_" + edgeLabel + "_" + dstLabel
}

func EdataPrefix(srcLabel, dstLabel, edgeLabel string) string {
	return "e_" + srcLabel + "_" + edgeLabel + "_" + dstLabel + "_data"
}

func VertexTablePrefix(label string) string {
	return "vertex_table_" + label
}

func ThreadLocalAllocatorPrefix(root string, workerID int) string {
	return filepath.Join(AllocatorDir(root), "allocator_"+strconv.Itoa(workerID)+"_")
}
