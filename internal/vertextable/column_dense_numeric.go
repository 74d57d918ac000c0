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
	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/value"
)

// denseNumericColumn is a fixed-width mmap'd column for any non-string
// property type: bool/i32/u32/i64/u64/f32/f64/date/day. Each row is a
// value.Encode'd tag+payload padded to denseNumericSlotSize bytes.
type denseNumericColumn struct {
	arr *slotArray
}

func openDenseNumericColumn(path string) (*denseNumericColumn, error) {
	arr, err := openSlotArray(path, denseNumericSlotSize)
	if err != nil {
		return nil, err
	}
	return &denseNumericColumn{arr: arr}, nil
}

func (c *denseNumericColumn) get(row uint32) (value.Any, error) {
	if row >= c.arr.rows {
		return value.Empty(), nil
	}
	slot := c.arr.slot(row)
	d := value.NewDecoder(slot)
	a, err := value.Decode(d)
	if err != nil {
		return value.Any{}, errs.New(errs.KindCorrupt, "vertextable.denseNumericColumn.get", err)
	}
	return a, nil
}

func (c *denseNumericColumn) set(row uint32, a value.Any) error {
	if err := c.arr.ensure(row + 1); err != nil {
		return err
	}
	e := value.NewEncoder(make([]byte, 0, denseNumericSlotSize))
	value.Encode(e, a)
	b := e.Bytes()
	if len(b) > denseNumericSlotSize {
		return errs.New(errs.KindOutOfRange, "vertextable.denseNumericColumn.set", nil)
	}
	slot := c.arr.slot(row)
	clear(slot)
	copy(slot, b)
	return nil
}

func (c *denseNumericColumn) ensureRows(n uint32) error { return c.arr.ensure(n) }

func (c *denseNumericColumn) resolveString(value.Any) (string, bool) { return "", false }

func (c *denseNumericColumn) sync() error  { return c.arr.sync() }
func (c *denseNumericColumn) close() error { return c.arr.close() }
