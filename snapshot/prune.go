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

package snapshot

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/zstd"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
)

// Prune removes every snapshots/<v> directory whose version is not in
// keep (§4.10 step 4: retention policy itself is out of core scope, this
// only implements the mechanics once a caller has decided what to keep —
// typically the active VERSION plus any version still held open by a
// long-lived reader). When archive is true, each pruned directory is
// first written out as a <version>.tar.zst cold copy next to snapshots/
// before being removed.
func (m *Manager) Prune(keep map[uint32]bool, archive bool) error {
	dir := filenames.SnapshotsDir(m.root)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errs.New(errs.KindIOError, "snapshot.Manager.Prune", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, convErr := strconv.ParseUint(e.Name(), 10, 32)
		if convErr != nil {
			continue
		}
		version := uint32(v)
		if keep[version] {
			continue
		}

		full := filepath.Join(dir, e.Name())
		if archive {
			if err := archiveDir(full, full+".tar.zst"); err != nil {
				return err
			}
		}
		if err := os.RemoveAll(full); err != nil {
			return errs.New(errs.KindIOError, "snapshot.Manager.Prune", err)
		}
		m.log.Info().Uint32("version", version).Bool("archived", archive).Msg("pruned superseded snapshot")
	}
	return nil
}

// archiveDir writes src's contents as a zstd-compressed tar at dest, the
// cold copy taken before Prune removes a superseded snapshot directory.
func archiveDir(src, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return errs.New(errs.KindIOError, "snapshot.archiveDir", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return errs.New(errs.KindIOError, "snapshot.archiveDir", err)
	}
	tw := tar.NewWriter(zw)

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return tw.WriteHeader(&tar.Header{Name: rel + "/", Mode: 0o755, Typeflag: tar.TypeDir})
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(tw, in)
		return err
	})
	if walkErr != nil {
		tw.Close()
		zw.Close()
		return errs.New(errs.KindIOError, "snapshot.archiveDir", walkErr)
	}
	if err := tw.Close(); err != nil {
		zw.Close()
		return errs.New(errs.KindIOError, "snapshot.archiveDir", err)
	}
	if err := zw.Close(); err != nil {
		return errs.New(errs.KindIOError, "snapshot.archiveDir", err)
	}
	return nil
}
