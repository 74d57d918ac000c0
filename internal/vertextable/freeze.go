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
	"path/filepath"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

// Freeze materializes a brand-new frozen column set for vl under
// root/snapshots/<version>: row newVid holds src's row order[newVid] (a
// vid in src's own, old, vid space). Used by snapshot.Manager.Stage once
// pkindex.LabelIndex.Freeze has assigned a label's new vid space, to
// write that label's table out at the matching row order.
//
// Unlike AppendDefaultRow, Freeze writes directly into the new version's
// column files rather than src's runtime/tails area: that tail directory
// is shared with whatever Table instance is still serving live traffic,
// so it is never a valid destination for a second snapshot's rows.
func Freeze(root string, version uint32, vl *schema.VertexLabel, src *Table, order []uint32) error {
	dir := filenames.SnapshotDir(root, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.New(errs.KindIOError, "vertextable.Freeze", err)
	}
	prefix := filenames.VertexTablePrefix(vl.Name)
	cols, err := openColumnSet(dir, prefix, vl.Properties)
	if err != nil {
		return err
	}

	n := uint32(len(order))
	for _, c := range cols {
		if err := c.ensureRows(n); err != nil {
			return err
		}
	}
	for newVid, oldVid := range order {
		for col := range vl.Properties {
			v, err := src.Get(oldVid, col)
			if err != nil {
				return err
			}
			if !v.IsEmpty() {
				if s, ok := src.ResolveString(col, v); ok {
					v = value.FromOwnedString(s)
				}
			}
			if err := cols[col].set(uint32(newVid), v); err != nil {
				return err
			}
		}
	}
	for _, c := range cols {
		if err := c.sync(); err != nil {
			return err
		}
		if err := c.close(); err != nil {
			return err
		}
	}
	return writePop(filepath.Join(dir, prefix+".pop"), n)
}
