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

package csr

import (
	"encoding/binary"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/erigontech/graphcore/errs"
)

const metaInitialRows = 1024

// metaSlotSize is one vertex's {off uint32, capacity uint32, size uint32}
// triple (§4.4's reserved_off[v]/size[v] bookkeeping).
const metaSlotSize = 12

// metaArray is the per-vertex `.deg` file: a growable, mmap'd array of
// metaSlotSize-byte slots indexed by vid.
type metaArray struct {
	file *os.File
	mm   mmap.MMap
	rows uint32
}

func openMetaArray(path string) (*metaArray, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errs.New(errs.KindIOError, "csr.openMetaArray", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.New(errs.KindIOError, "csr.openMetaArray", err)
	}
	m := &metaArray{file: f}
	rows := uint32(fi.Size()) / metaSlotSize
	if rows == 0 {
		rows = metaInitialRows
		if err := f.Truncate(int64(rows) * metaSlotSize); err != nil {
			f.Close()
			return nil, errs.New(errs.KindIOError, "csr.openMetaArray", err)
		}
	}
	if err := m.remap(rows); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

func (m *metaArray) remap(rows uint32) error {
	if m.mm != nil {
		if err := m.mm.Unmap(); err != nil {
			return errs.New(errs.KindIOError, "csr.metaArray.remap", err)
		}
	}
	mm, err := mmap.Map(m.file, mmap.RDWR, 0)
	if err != nil {
		return errs.New(errs.KindIOError, "csr.metaArray.remap", err)
	}
	m.mm = mm
	m.rows = rows
	return nil
}

func (m *metaArray) ensure(n uint32) error {
	if n <= m.rows {
		return nil
	}
	newRows := m.rows
	if newRows == 0 {
		newRows = metaInitialRows
	}
	for newRows < n {
		newRows *= 2
	}
	if err := m.file.Truncate(int64(newRows) * metaSlotSize); err != nil {
		return errs.New(errs.KindIOError, "csr.metaArray.ensure", err)
	}
	return m.remap(newRows)
}

type vertexMeta struct {
	off      uint32
	capacity uint32
	size     uint32
}

func (m *metaArray) get(vid uint32) vertexMeta {
	if vid >= m.rows {
		return vertexMeta{}
	}
	b := m.mm[uint64(vid)*metaSlotSize : uint64(vid)*metaSlotSize+metaSlotSize]
	return vertexMeta{
		off:      binary.LittleEndian.Uint32(b[0:4]),
		capacity: binary.LittleEndian.Uint32(b[4:8]),
		size:     binary.LittleEndian.Uint32(b[8:12]),
	}
}

func (m *metaArray) set(vid uint32, v vertexMeta) error {
	if err := m.ensure(vid + 1); err != nil {
		return err
	}
	b := m.mm[uint64(vid)*metaSlotSize : uint64(vid)*metaSlotSize+metaSlotSize]
	binary.LittleEndian.PutUint32(b[0:4], v.off)
	binary.LittleEndian.PutUint32(b[4:8], v.capacity)
	binary.LittleEndian.PutUint32(b[8:12], v.size)
	return nil
}

func (m *metaArray) sync() error {
	if err := m.mm.Flush(); err != nil {
		return errs.New(errs.KindIOError, "csr.metaArray.sync", err)
	}
	return nil
}

func (m *metaArray) close() error {
	if m.mm != nil {
		if err := m.mm.Unmap(); err != nil {
			return errs.New(errs.KindIOError, "csr.metaArray.close", err)
		}
	}
	return m.file.Close()
}
