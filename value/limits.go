// Copyright 2017 The go-ethereum Authors
// (original work)
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

package value

import "math/bits"

// Integer limit values. The Convert* functions in convert.go accept only
// an exact tag match and do not consult these or the helpers below.
const (
	MaxInt32  = 1<<31 - 1
	MinInt32  = -1 << 31
	MaxUint32 = 1<<32 - 1
	MaxInt64  = 1<<63 - 1
	MinInt64  = -1 << 63
)

// fitsInt32 reports whether v is representable as an int32 without loss.
func fitsInt32(v int64) bool {
	return v >= MinInt32 && v <= MaxInt32
}

// fitsUint32 reports whether v is representable as a uint32 without loss.
func fitsUint32(v uint64) bool {
	return v <= MaxUint32
}

// safeAdd returns x+y and whether the addition overflowed a uint64.
func safeAdd(x, y uint64) (uint64, bool) {
	sum, carry := bits.Add64(x, y, 0)
	return sum, carry != 0
}
