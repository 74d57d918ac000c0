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

package wal

import (
	"os"

	"github.com/gofrs/flock"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
)

// segmentMaxBytes bounds one log_<n> file's size before the writer rolls
// to a fresh segment; keeps any single file mmap/scan-friendly.
const segmentMaxBytes = 256 << 20

// Writer is the single append-only WAL producer for a data root. Only
// one Writer may hold the directory's flock at a time (§4.8, §5's
// single write slot).
type Writer struct {
	root    string
	lock    *flock.Flock
	file    *os.File
	segment int
	size    int64
}

// Open acquires the wal/ directory lock and positions the writer at the
// end of the latest segment (or creates log_0 if none exists yet).
func Open(root string) (*Writer, error) {
	dir := filenames.WalDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.New(errs.KindIOError, "wal.Open", err)
	}
	lock := flock.New(lockPath(root))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errs.New(errs.KindIOError, "wal.Open", err)
	}
	if !locked {
		return nil, errs.New(errs.KindConflict, "wal.Open", nil)
	}

	segs, err := listSegments(root)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	segment := 0
	if len(segs) > 0 {
		segment = segs[len(segs)-1]
	}
	f, err := os.OpenFile(segmentPath(root, segment), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		lock.Unlock()
		return nil, errs.New(errs.KindIOError, "wal.Open", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		lock.Unlock()
		return nil, errs.New(errs.KindIOError, "wal.Open", err)
	}
	return &Writer{root: root, lock: lock, file: f, segment: segment, size: fi.Size()}, nil
}

// Append writes one record (header + payload) and fsyncs before
// returning, so a record is only ever observable by replay once both
// its header and payload are durably on disk (§4.8).
func (w *Writer) Append(recordType RecordType, timestamp uint32, payload []byte) error {
	if w.size+headerSize+int64(len(payload)) > segmentMaxBytes {
		if err := w.rotate(); err != nil {
			return err
		}
	}
	header := encodeHeader(WalHeader{Length: uint32(len(payload)), Type: recordType, Timestamp: timestamp})
	buf := make([]byte, 0, len(header)+len(payload))
	buf = append(buf, header...)
	buf = append(buf, payload...)
	n, err := w.file.Write(buf)
	if err != nil {
		return errs.New(errs.KindIOError, "wal.Writer.Append", err)
	}
	if err := w.file.Sync(); err != nil {
		return errs.New(errs.KindIOError, "wal.Writer.Append", err)
	}
	w.size += int64(n)
	return nil
}

func (w *Writer) rotate() error {
	if err := w.file.Close(); err != nil {
		return errs.New(errs.KindIOError, "wal.Writer.rotate", err)
	}
	w.segment++
	f, err := os.OpenFile(segmentPath(w.root, w.segment), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return errs.New(errs.KindIOError, "wal.Writer.rotate", err)
	}
	w.file = f
	w.size = 0
	return nil
}

// Close releases the segment file and the directory lock.
func (w *Writer) Close() error {
	err := w.file.Close()
	if unlockErr := w.lock.Unlock(); err == nil {
		err = unlockErr
	}
	if err != nil {
		return errs.New(errs.KindIOError, "wal.Writer.Close", err)
	}
	return nil
}
