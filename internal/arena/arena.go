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

// Package arena implements the process-wide string arena allocator of
// §4.5: a growable, memory-mapped append-only byte region that backs
// every TagLongStr value produced by a column writer. Allocations live
// as long as the snapshot that references them.
package arena

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/erigontech/graphcore/errs"
)

const initialArenaSize = 1 << 16 // 64 KiB

// growthFactor matches the CSR overflow doubling policy (§4.4) so arena
// growth and neighbor-array growth share the same amortized-cost shape.
const growthFactor = 2

// Arena is a single memory-mapped, append-only string arena. It is not
// safe for concurrent Append from multiple goroutines; callers needing
// concurrent writers should use one Arena per worker (see WorkerArena)
// and merge only at snapshot-build time.
type Arena struct {
	path string
	file *os.File
	mm   mmap.MMap
	size uint32 // capacity of the mapped region
	used uint32 // bytes actually written
}

// Open opens or creates the arena file at path, mapping its current
// (or newly truncated) capacity.
func Open(path string) (*Arena, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errs.New(errs.KindIOError, "arena.Open", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.New(errs.KindIOError, "arena.Open", err)
	}
	a := &Arena{path: path, file: f}
	size := uint32(fi.Size())
	if size == 0 {
		size = initialArenaSize
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, errs.New(errs.KindIOError, "arena.Open", err)
		}
	}
	if err := a.remap(size); err != nil {
		f.Close()
		return nil, err
	}
	// used is recovered from a 4-byte footer-less convention: the arena
	// keeps its own used-byte count in the first 4 bytes of the file,
	// reserved on creation.
	if size == initialArenaSize && fi.Size() == 0 {
		a.used = 4
	} else {
		a.used = leUint32(a.mm[:4])
		if a.used < 4 {
			// Created earlier but never appended to: the reserved
			// counter bytes were never written.
			a.used = 4
		}
	}
	return a, nil
}

func (a *Arena) remap(size uint32) error {
	if a.mm != nil {
		if err := a.mm.Unmap(); err != nil {
			return errs.New(errs.KindIOError, "arena.remap", err)
		}
	}
	mm, err := mmap.Map(a.file, mmap.RDWR, 0)
	if err != nil {
		return errs.New(errs.KindIOError, "arena.remap", err)
	}
	a.mm = mm
	a.size = size
	return nil
}

// Append writes b into the arena and returns its (offset, length). The
// first 4 bytes of the arena are reserved to persist the used-byte high
// watermark across restart, so offsets start at 4.
func (a *Arena) Append(b []byte) (offset, length uint32, err error) {
	need := a.used + uint32(len(b))
	if need > a.size {
		newSize := a.size
		for newSize < need {
			newSize *= growthFactor
		}
		if err := a.file.Truncate(int64(newSize)); err != nil {
			return 0, 0, errs.New(errs.KindIOError, "arena.Append", err)
		}
		if err := a.remap(newSize); err != nil {
			return 0, 0, err
		}
	}
	offset = a.used
	copy(a.mm[offset:need], b)
	a.used = need
	putLeUint32(a.mm[:4], a.used)
	length = uint32(len(b))
	return offset, length, nil
}

// Contains reports whether (offset, length) denotes a region already
// written into this arena, used by callers holding a view that may
// belong to a different arena (e.g. vertextable routing a long-string
// value between its frozen and tail column arenas).
func (a *Arena) Contains(offset, length uint32) bool {
	return offset+length <= a.used
}

// String resolves a (offset, length) view into the arena's bytes. The
// returned string is only valid as long as the Arena is not closed or
// remapped by a subsequent Append.
func (a *Arena) String(offset, length uint32) string {
	if offset+length > a.used {
		return ""
	}
	return string(a.mm[offset : offset+length])
}

// Slice returns a mutable view into the arena's mapped region. Unlike
// String, the returned bytes are writable in place — used by callers
// (e.g. internal/csr's neighbor runs) that allocate a region once via
// Append and then update individual records within it without
// re-appending. The slice is only valid until the next Append triggers
// a remap.
func (a *Arena) Slice(offset, length uint32) []byte {
	return a.mm[offset : offset+length]
}

// Sync flushes the mapped region to disk.
func (a *Arena) Sync() error {
	if err := a.mm.Flush(); err != nil {
		return errs.New(errs.KindIOError, "arena.Sync", err)
	}
	return nil
}

// Close unmaps and closes the underlying file.
func (a *Arena) Close() error {
	if a.mm != nil {
		if err := a.mm.Unmap(); err != nil {
			return errs.New(errs.KindIOError, "arena.Close", err)
		}
	}
	return a.file.Close()
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLeUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
