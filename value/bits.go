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

import "math"

func float32bits(v float32) uint32       { return math.Float32bits(v) }
func float32frombits(b uint32) float32    { return math.Float32frombits(b) }
func float64bits(v float64) uint64        { return math.Float64bits(v) }
func float64frombits(b uint64) float64    { return math.Float64frombits(b) }
