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
	"io"
	"os"

	"github.com/google/btree"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/value"
)

// sparseEntry is one row's value, keyed by row number, held in the
// in-memory btree.
type sparseEntry struct {
	row uint32
	val value.Any
}

func (e sparseEntry) Less(than btree.Item) bool {
	return e.row < than.(sparseEntry).row
}

// sparseColumn is the in-memory-map column strategy of §4.3, for
// properties set on a small minority of rows: an ordered btree (rather
// than a bare map, for compact memory use and ordered iteration at
// compaction) plus a file-backed append-only journal replayed on open.
type sparseColumn struct {
	tree    *btree.BTree
	journal *os.File
	rows    uint32
}

const sparseBtreeDegree = 32

func openSparseColumn(path string) (*sparseColumn, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errs.New(errs.KindIOError, "vertextable.openSparseColumn", err)
	}
	c := &sparseColumn{tree: btree.New(sparseBtreeDegree), journal: f}
	if err := c.replay(); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// replay reconstructs the btree from the journal: each record is a
// uint32 row followed by a value.Encode'd Any, back to back.
func (c *sparseColumn) replay() error {
	if _, err := c.journal.Seek(0, io.SeekStart); err != nil {
		return errs.New(errs.KindIOError, "vertextable.sparseColumn.replay", err)
	}
	buf, err := io.ReadAll(c.journal)
	if err != nil {
		return errs.New(errs.KindIOError, "vertextable.sparseColumn.replay", err)
	}
	d := value.NewDecoder(buf)
	for d.Remaining() > 0 {
		row, err := d.ReadUint32()
		if err != nil {
			return errs.New(errs.KindCorrupt, "vertextable.sparseColumn.replay", err)
		}
		a, err := value.Decode(d)
		if err != nil {
			return errs.New(errs.KindCorrupt, "vertextable.sparseColumn.replay", err)
		}
		c.tree.ReplaceOrInsert(sparseEntry{row: row, val: a})
		if row+1 > c.rows {
			c.rows = row + 1
		}
	}
	if _, err := c.journal.Seek(0, io.SeekEnd); err != nil {
		return errs.New(errs.KindIOError, "vertextable.sparseColumn.replay", err)
	}
	return nil
}

func (c *sparseColumn) get(row uint32) (value.Any, error) {
	item := c.tree.Get(sparseEntry{row: row})
	if item == nil {
		return value.Empty(), nil
	}
	return item.(sparseEntry).val, nil
}

func (c *sparseColumn) set(row uint32, a value.Any) error {
	e := value.NewEncoder(make([]byte, 0, 16))
	e.WriteUint32(row)
	value.Encode(e, a)
	if _, err := c.journal.Write(e.Bytes()); err != nil {
		return errs.New(errs.KindIOError, "vertextable.sparseColumn.set", err)
	}
	c.tree.ReplaceOrInsert(sparseEntry{row: row, val: a})
	if row+1 > c.rows {
		c.rows = row + 1
	}
	return nil
}

func (c *sparseColumn) ensureRows(n uint32) error {
	if n > c.rows {
		c.rows = n
	}
	return nil
}

func (c *sparseColumn) resolveString(a value.Any) (string, bool) {
	return a.AsString(nil)
}

func (c *sparseColumn) sync() error {
	return c.journal.Sync()
}

func (c *sparseColumn) close() error {
	return c.journal.Close()
}
