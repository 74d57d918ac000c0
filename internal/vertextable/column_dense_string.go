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
	"encoding/binary"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/arena"
	"github.com/erigontech/graphcore/value"
)

// denseStringColumn stores a variable-width string property as a
// fixed-width (offset, length) items array plus a shared append-only
// string arena (§4.3: "<table_prefix>.col_<i>" items file and its
// ".data" arena). Reads return a non-owning value.FromLongString view;
// callers resolve it via resolveString, which is this column's arena.
type denseStringColumn struct {
	items *slotArray
	data  *arena.Arena
}

func openDenseStringColumn(itemsPath, dataPath string) (*denseStringColumn, error) {
	items, err := openSlotArray(itemsPath, stringItemSlotSize)
	if err != nil {
		return nil, err
	}
	data, err := arena.Open(dataPath)
	if err != nil {
		items.close()
		return nil, err
	}
	return &denseStringColumn{items: items, data: data}, nil
}

func (c *denseStringColumn) get(row uint32) (value.Any, error) {
	if row >= c.items.rows {
		return value.Empty(), nil
	}
	slot := c.items.slot(row)
	off := binary.LittleEndian.Uint32(slot[0:4])
	length := binary.LittleEndian.Uint32(slot[4:8])
	if off == 0 && length == 0 {
		return value.Empty(), nil
	}
	return value.FromLongString(off, length), nil
}

func (c *denseStringColumn) set(row uint32, a value.Any) error {
	if err := c.items.ensure(row + 1); err != nil {
		return err
	}
	if a.IsEmpty() {
		slot := c.items.slot(row)
		binary.LittleEndian.PutUint32(slot[0:4], 0)
		binary.LittleEndian.PutUint32(slot[4:8], 0)
		return nil
	}
	s, ok := a.AsString(nil)
	if !ok {
		return errs.New(errs.KindTypeMismatch, "vertextable.denseStringColumn.set", nil)
	}
	off, length, err := c.data.Append([]byte(s))
	if err != nil {
		return err
	}
	slot := c.items.slot(row)
	binary.LittleEndian.PutUint32(slot[0:4], off)
	binary.LittleEndian.PutUint32(slot[4:8], length)
	return nil
}

func (c *denseStringColumn) ensureRows(n uint32) error { return c.items.ensure(n) }

func (c *denseStringColumn) resolveString(a value.Any) (string, bool) {
	off, length, ok := a.LongStringView()
	if !ok || !c.data.Contains(off, length) {
		return "", false
	}
	return c.data.String(off, length), true
}

func (c *denseStringColumn) sync() error {
	if err := c.items.sync(); err != nil {
		return err
	}
	return c.data.Sync()
}

func (c *denseStringColumn) close() error {
	if err := c.items.close(); err != nil {
		return err
	}
	return c.data.Close()
}
