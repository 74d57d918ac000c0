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

// Package snapshot implements the directory lifecycle of §4.10: staging
// a new numbered snapshot directory, publishing it with the atomic
// VERSION rewrite, and pruning superseded directories. A data root's
// only durable pointer to "the current graph" is snapshots/VERSION; every
// other snapshot directory is disposable once nothing names it anymore.
package snapshot

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
)

// Manager owns the version switch for one data root.
type Manager struct {
	root string
	log  zerolog.Logger
}

// NewManager returns a Manager over root. A zero logger value is valid
// and discards all output.
func NewManager(root string, log zerolog.Logger) *Manager {
	return &Manager{root: root, log: log}
}

// Open reads snapshots/VERSION, returning ok=false for a fresh data root
// that has never been promoted (awaiting its first bulk load).
func Open(root string) (version uint32, ok bool, err error) {
	b, err := os.ReadFile(filenames.SnapshotVersionPath(root))
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errs.New(errs.KindIOError, "snapshot.Open", err)
	}
	if len(b) < 4 {
		return 0, false, errs.New(errs.KindCorrupt, "snapshot.Open", nil)
	}
	return binary.LittleEndian.Uint32(b), true, nil
}

// Promote is §4.10's atomic version switch: write VERSION.tmp, fsync,
// rename over VERSION. Guarded by an flock on the snapshots/ directory
// so two processes (or a promote racing a concurrent prune) never
// interleave the rename.
func (m *Manager) Promote(version uint32) error {
	dir := filenames.SnapshotsDir(m.root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.KindIOError, "snapshot.Manager.Promote", err)
	}

	lock := flock.New(lockPath(m.root))
	locked, err := lock.TryLock()
	if err != nil {
		return errs.New(errs.KindIOError, "snapshot.Manager.Promote", err)
	}
	if !locked {
		return errs.New(errs.KindConflict, "snapshot.Manager.Promote", nil)
	}
	defer lock.Unlock()

	tmpPath := filenames.SnapshotVersionTmpPath(m.root)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], version)
	if err := os.WriteFile(tmpPath, buf[:], 0o644); err != nil {
		return errs.New(errs.KindIOError, "snapshot.Manager.Promote", err)
	}
	f, err := os.Open(tmpPath)
	if err != nil {
		return errs.New(errs.KindIOError, "snapshot.Manager.Promote", err)
	}
	syncErr := f.Sync()
	closeErr := f.Close()
	if syncErr != nil {
		return errs.New(errs.KindIOError, "snapshot.Manager.Promote", syncErr)
	}
	if closeErr != nil {
		return errs.New(errs.KindIOError, "snapshot.Manager.Promote", closeErr)
	}
	if err := os.Rename(tmpPath, filenames.SnapshotVersionPath(m.root)); err != nil {
		return errs.New(errs.KindIOError, "snapshot.Manager.Promote", err)
	}

	m.log.Info().Uint32("version", version).Msg("snapshot promoted")
	return nil
}

func lockPath(root string) string {
	return filepath.Join(filenames.SnapshotsDir(root), ".lock")
}
