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

import "github.com/erigontech/graphcore/value"

// denseNumericSlotSize is sized to hold any fixed-width Any encoded by
// value.Encode: the widest payload is a tag byte plus 8 bytes (i64/u64/
// f64/date).
const denseNumericSlotSize = 9

// stringItemSlotSize is one (offset uint32, length uint32) pair.
const stringItemSlotSize = 8

// column is one property's storage strategy: dense numeric (mmap'd fixed
// slots), dense string (mmap'd (offset,length) items plus an arena), or
// sparse (in-memory btree plus a replayed journal). §4.3.
type column interface {
	get(row uint32) (value.Any, error)
	set(row uint32, a value.Any) error
	ensureRows(n uint32) error
	resolveString(a value.Any) (string, bool)
	sync() error
	close() error
}
