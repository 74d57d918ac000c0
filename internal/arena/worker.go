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

package arena

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
)

// WorkerArena is a single bulk-load or transaction worker's thread-local
// string arena, named by worker id under runtime/allocator/ per §4.5.
type WorkerArena struct {
	*Arena
	WorkerID int
}

// OpenWorker opens the arena file for workerID under root's allocator
// directory, creating the directory if necessary.
func OpenWorker(root string, workerID int) (*WorkerArena, error) {
	dir := filenames.AllocatorDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.New(errs.KindIOError, "arena.OpenWorker", err)
	}
	path := filenames.ThreadLocalAllocatorPrefix(root, workerID) + "arena"
	a, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &WorkerArena{Arena: a, WorkerID: workerID}, nil
}

// GCStaleArenas removes allocator files under root that are not claimed
// by any of liveWorkerIDs. Called at startup: arenas belong to the
// snapshot that referenced them, and once the loader has copied live
// strings into the new snapshot's column arenas (§4.5), any leftover
// worker arena from a prior, now-superseded bulk load is garbage.
func GCStaleArenas(root string, liveWorkerIDs []int) error {
	dir := filenames.AllocatorDir(root)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errs.New(errs.KindIOError, "arena.GCStaleArenas", err)
	}
	live := make(map[string]bool, len(liveWorkerIDs))
	for _, id := range liveWorkerIDs {
		prefix := filepath.Base(filenames.ThreadLocalAllocatorPrefix(root, id))
		live[prefix] = true
	}
	for _, e := range entries {
		name := e.Name()
		claimed := false
		for prefix := range live {
			if strings.HasPrefix(name, prefix) {
				claimed = true
				break
			}
		}
		if !claimed {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return errs.New(errs.KindIOError, "arena.GCStaleArenas", err)
			}
		}
	}
	return nil
}
