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

package vertextable

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/erigontech/graphcore/errs"
)

const arrayInitialRows = 1024

// slotArray is a memory-mapped, fixed-width-slot array file indexed by
// row number: the `.col_<i>` file of §4.3. Unlike arena.Arena it is
// accessed by random-access slot index rather than append-only offset,
// so it tracks its row capacity (not a used-bytes watermark) and grows
// by doubling the row count.
type slotArray struct {
	path     string
	file     *os.File
	mm       mmap.MMap
	slotSize uint32
	rows     uint32 // capacity in rows
}

func openSlotArray(path string, slotSize uint32) (*slotArray, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errs.New(errs.KindIOError, "vertextable.openSlotArray", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.New(errs.KindIOError, "vertextable.openSlotArray", err)
	}
	s := &slotArray{path: path, file: f, slotSize: slotSize}
	rows := uint32(fi.Size()) / slotSize
	if rows == 0 {
		rows = arrayInitialRows
		if err := f.Truncate(int64(rows) * int64(slotSize)); err != nil {
			f.Close()
			return nil, errs.New(errs.KindIOError, "vertextable.openSlotArray", err)
		}
	}
	if err := s.remap(rows); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *slotArray) remap(rows uint32) error {
	if s.mm != nil {
		if err := s.mm.Unmap(); err != nil {
			return errs.New(errs.KindIOError, "vertextable.slotArray.remap", err)
		}
	}
	mm, err := mmap.Map(s.file, mmap.RDWR, 0)
	if err != nil {
		return errs.New(errs.KindIOError, "vertextable.slotArray.remap", err)
	}
	s.mm = mm
	s.rows = rows
	return nil
}

// ensure grows the array, doubling its row capacity until it covers n
// rows. The only operation that can move the mapped region (§4.3); a
// column's Get/Set re-slice from s.mm fresh on every call rather than
// retaining a pointer, so a growth mid-transaction never dangles.
func (s *slotArray) ensure(n uint32) error {
	if n <= s.rows {
		return nil
	}
	newRows := s.rows
	if newRows == 0 {
		newRows = arrayInitialRows
	}
	for newRows < n {
		newRows *= 2
	}
	if err := s.file.Truncate(int64(newRows) * int64(s.slotSize)); err != nil {
		return errs.New(errs.KindIOError, "vertextable.slotArray.ensure", err)
	}
	return s.remap(newRows)
}

func (s *slotArray) slot(row uint32) []byte {
	off := uint64(row) * uint64(s.slotSize)
	return s.mm[off : off+uint64(s.slotSize)]
}

func (s *slotArray) sync() error {
	if err := s.mm.Flush(); err != nil {
		return errs.New(errs.KindIOError, "vertextable.slotArray.sync", err)
	}
	return nil
}

func (s *slotArray) close() error {
	if s.mm != nil {
		if err := s.mm.Unmap(); err != nil {
			return errs.New(errs.KindIOError, "vertextable.slotArray.close", err)
		}
	}
	return s.file.Close()
}
