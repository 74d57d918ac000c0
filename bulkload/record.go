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

package bulkload

import (
	"errors"
	"io"

	"github.com/erigontech/graphcore/value"
)

// ErrNoMoreBatches is returned by a RecordBatchSupplier once exhausted,
// an alias of io.EOF so callers can use either spelling.
var ErrNoMoreBatches = io.EOF

// RecordBatch is one rectangular, column-major batch of typed rows
// (§4.9): Columns[c][r] is row r's value for column c. Every column
// must have equal length.
type RecordBatch struct {
	Columns [][]value.Any
}

// Rows reports the batch's row count.
func (b RecordBatch) Rows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return len(b.Columns[0])
}

// RecordBatchSupplier is the external data source the bulk loader
// consumes (§4.9): a CSV reader, Arrow file, ODPS table scan, or any
// other column-rectangular producer. Next returns io.EOF once
// exhausted; the loader calls it from a single goroutine per source, so
// implementations need not be concurrency-safe.
type RecordBatchSupplier interface {
	Next() (RecordBatch, error)
}

// sliceSupplier is a simple in-memory RecordBatchSupplier, useful for
// tests and for callers who've already materialized their batches.
type sliceSupplier struct {
	batches []RecordBatch
	pos     int
}

// NewSliceSupplier wraps a pre-built slice of batches as a
// RecordBatchSupplier.
func NewSliceSupplier(batches []RecordBatch) RecordBatchSupplier {
	return &sliceSupplier{batches: batches}
}

func (s *sliceSupplier) Next() (RecordBatch, error) {
	if s.pos >= len(s.batches) {
		return RecordBatch{}, io.EOF
	}
	b := s.batches[s.pos]
	s.pos++
	return b, nil
}

var errBadColumnCount = errors.New("bulkload: batch column count does not match schema")
