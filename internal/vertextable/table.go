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

// Package vertextable implements the per-vertex-label struct-of-arrays
// property store of §4.3: one column per schema property, each backed by
// one of three storage strategies (dense numeric, dense string, sparse),
// plus the `runtime/tails` supplemented split that keeps rows appended
// since the last snapshot out of the frozen snapshot directory
// (SPEC_FULL.md §4).
package vertextable

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

// Table is one vertex label's column store, §4.3's operations:
// get/set/append_default_row/resize/ingest_row.
type Table struct {
	label string
	vl    *schema.VertexLabel

	frozenDir string
	tailDir   string

	frozenPop uint32 // row count fixed as of the open snapshot; never grown
	tailRows  uint32 // rows appended since, stored separately

	frozenCols []column
	tailCols   []column
}

// Open opens (creating as needed) the vertex table for label vl under
// root, rooted at snapshot version's directory for the frozen column
// set and runtime/tails/<label> for the mutable tail.
func Open(root string, version uint32, vl *schema.VertexLabel) (*Table, error) {
	frozenDir := filenames.SnapshotDir(root, version)
	tailDir := filepath.Join(filenames.TailsDir(root), vl.Name)
	if err := os.MkdirAll(frozenDir, 0o755); err != nil {
		return nil, errs.New(errs.KindIOError, "vertextable.Open", err)
	}
	if err := os.MkdirAll(tailDir, 0o755); err != nil {
		return nil, errs.New(errs.KindIOError, "vertextable.Open", err)
	}

	t := &Table{label: vl.Name, vl: vl, frozenDir: frozenDir, tailDir: tailDir}

	prefix := filenames.VertexTablePrefix(vl.Name)
	frozenCols, err := openColumnSet(frozenDir, prefix, vl.Properties)
	if err != nil {
		return nil, err
	}
	tailCols, err := openColumnSet(tailDir, prefix, vl.Properties)
	if err != nil {
		return nil, err
	}
	t.frozenCols = frozenCols
	t.tailCols = tailCols

	t.frozenPop = readPop(filepath.Join(frozenDir, prefix+".pop"))
	t.tailRows = readPop(filepath.Join(tailDir, prefix+".pop"))

	return t, nil
}

func openColumnSet(dir, prefix string, props []schema.Property) ([]column, error) {
	cols := make([]column, len(props))
	for i, p := range props {
		colPrefix := filepath.Join(dir, prefix+".col_"+strconv.Itoa(i))
		var (
			c   column
			err error
		)
		switch {
		case p.Sparse:
			c, err = openSparseColumn(colPrefix + ".journal")
		case p.Type.FixedWidth():
			c, err = openDenseNumericColumn(colPrefix)
		default:
			c, err = openDenseStringColumn(colPrefix+".items", colPrefix+".data")
		}
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

func readPop(path string) uint32 {
	b, err := os.ReadFile(path)
	if err != nil || len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func writePop(path string, n uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], n)
	if err := os.WriteFile(path, b[:], 0o644); err != nil {
		return errs.New(errs.KindIOError, "vertextable.writePop", err)
	}
	return nil
}

// Rows reports the table's current population (frozen + tail).
func (t *Table) Rows() uint32 { return t.frozenPop + t.tailRows }

func (t *Table) route(vid uint32) (cols []column, row uint32, err error) {
	if vid < t.frozenPop {
		return t.frozenCols, vid, nil
	}
	tailRow := vid - t.frozenPop
	if tailRow >= t.tailRows {
		return nil, 0, errs.New(errs.KindOutOfRange, "vertextable.route", nil)
	}
	return t.tailCols, tailRow, nil
}

// Get reads column col of vid.
func (t *Table) Get(vid uint32, col int) (value.Any, error) {
	if col < 0 || col >= len(t.frozenCols) {
		return value.Any{}, errs.New(errs.KindOutOfRange, "vertextable.Get", nil)
	}
	cols, row, err := t.route(vid)
	if err != nil {
		return value.Any{}, err
	}
	return cols[col].get(row)
}

// Set writes column col of vid, copy-on-write semantics handled by the
// caller (the update-transaction overlay, §4.7); by the time Set is
// called the write is final.
func (t *Table) Set(vid uint32, col int, a value.Any) error {
	if col < 0 || col >= len(t.frozenCols) {
		return errs.New(errs.KindOutOfRange, "vertextable.Set", nil)
	}
	cols, row, err := t.route(vid)
	if err != nil {
		return err
	}
	return cols[col].set(row, a)
}

// ResolveString resolves a value.Any previously returned by Get back to
// a Go string, routing through the owning column's arena (dense string)
// or returning it directly (short/owned strings).
func (t *Table) ResolveString(col int, a value.Any) (string, bool) {
	if s, ok := a.AsString(nil); ok {
		return s, true
	}
	if col < 0 || col >= len(t.frozenCols) {
		return "", false
	}
	if s, ok := t.frozenCols[col].resolveString(a); ok {
		return s, true
	}
	return t.tailCols[col].resolveString(a)
}

// AppendDefaultRow appends one row of empty-valued columns, always to
// the mutable tail (§4.3), and returns its vid.
func (t *Table) AppendDefaultRow() (uint32, error) {
	vid := t.frozenPop + t.tailRows
	t.tailRows++
	for _, c := range t.tailCols {
		if err := c.ensureRows(t.tailRows); err != nil {
			return 0, err
		}
	}
	if err := writePop(filepath.Join(t.tailDir, filenames.VertexTablePrefix(t.label)+".pop"), t.tailRows); err != nil {
		return 0, err
	}
	return vid, nil
}

// Resize grows the table to at least n rows, extending the tail only:
// the frozen column set's row extent is fixed as of the snapshot it
// belongs to (SPEC_FULL.md §4 "runtime tails").
func (t *Table) Resize(n uint32) error {
	if n <= t.frozenPop {
		return nil
	}
	want := n - t.frozenPop
	if want <= t.tailRows {
		return nil
	}
	for _, c := range t.tailCols {
		if err := c.ensureRows(want); err != nil {
			return err
		}
	}
	t.tailRows = want
	return writePop(filepath.Join(t.tailDir, filenames.VertexTablePrefix(t.label)+".pop"), t.tailRows)
}

// IngestRow decodes len(t.vl.Properties) Any values from d, in column
// order, and writes them to vid's row. Used by WAL replay (§4.8) to
// apply a staged AddVertex/overlay row in one pass.
func (t *Table) IngestRow(vid uint32, d *value.Decoder) error {
	for col := range t.vl.Properties {
		a, err := value.Decode(d)
		if err != nil {
			return err
		}
		if err := t.Set(vid, col, a); err != nil {
			return err
		}
	}
	return nil
}

// Sync flushes all column files to disk.
func (t *Table) Sync() error {
	for _, c := range t.frozenCols {
		if err := c.sync(); err != nil {
			return err
		}
	}
	for _, c := range t.tailCols {
		if err := c.sync(); err != nil {
			return err
		}
	}
	return nil
}

// Close releases all mapped regions and open files.
func (t *Table) Close() error {
	for _, c := range t.frozenCols {
		if err := c.close(); err != nil {
			return err
		}
	}
	for _, c := range t.tailCols {
		if err := c.close(); err != nil {
			return err
		}
	}
	return nil
}
