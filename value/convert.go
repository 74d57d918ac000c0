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

import (
	"github.com/erigontech/graphcore/errs"
)

// ConvertBool converts a to bool. Only a TagBool source is accepted;
// numeric widenings are never silent (§4.1).
func ConvertBool(a Any) (bool, error) {
	v, ok := a.AsBool()
	if !ok {
		return false, errs.New(errs.KindTypeMismatch, "value.ConvertBool", nil)
	}
	return v, nil
}

// ConvertI32 converts a to int32. No widening from i64/u64/u32 is
// performed even when the value would fit: the tag must already be i32.
func ConvertI32(a Any) (int32, error) {
	v, ok := a.AsI32()
	if !ok {
		return 0, errs.New(errs.KindTypeMismatch, "value.ConvertI32", nil)
	}
	return v, nil
}

func ConvertU32(a Any) (uint32, error) {
	v, ok := a.AsU32()
	if !ok {
		return 0, errs.New(errs.KindTypeMismatch, "value.ConvertU32", nil)
	}
	return v, nil
}

func ConvertI64(a Any) (int64, error) {
	v, ok := a.AsI64()
	if !ok {
		return 0, errs.New(errs.KindTypeMismatch, "value.ConvertI64", nil)
	}
	return v, nil
}

func ConvertU64(a Any) (uint64, error) {
	v, ok := a.AsU64()
	if !ok {
		return 0, errs.New(errs.KindTypeMismatch, "value.ConvertU64", nil)
	}
	return v, nil
}

func ConvertF32(a Any) (float32, error) {
	v, ok := a.AsF32()
	if !ok {
		return 0, errs.New(errs.KindTypeMismatch, "value.ConvertF32", nil)
	}
	return v, nil
}

func ConvertF64(a Any) (float64, error) {
	v, ok := a.AsF64()
	if !ok {
		return 0, errs.New(errs.KindTypeMismatch, "value.ConvertF64", nil)
	}
	return v, nil
}

// ConvertString converts a short or long string Any to a Go string.
// arena is only dereferenced for long strings and may be nil otherwise.
func ConvertString(a Any, arena StringArena) (string, error) {
	s, ok := a.AsString(arena)
	if !ok {
		return "", errs.New(errs.KindTypeMismatch, "value.ConvertString", nil)
	}
	return s, nil
}

// ConvertStringMap converts a to a string suitable for interning into a
// string-map (dictionary-encoded) column. This is the one documented
// exception in §4.1: a kString source (short or long) is accepted into a
// kStringMap target even though the target's own tag is TagStringMap and
// the source's is TagShortStr/TagLongStr.
func ConvertStringMap(a Any, arena StringArena) (string, error) {
	switch a.Tag() {
	case TagShortStr, TagLongStr:
		return ConvertString(a, arena)
	default:
		return "", errs.New(errs.KindTypeMismatch, "value.ConvertStringMap", nil)
	}
}

// Compare orders a against b, used by a triplet's sort_on_compaction
// property (§4.4/§4.9) to reorder a neighbor run by edge-data value.
// Both must carry the same tag (strings are compared byte-wise via
// arena, which may be nil if neither side is an arena-backed TagLongStr).
// ok is false for a tag mismatch or an unordered tag (record-view,
// empty, string-map).
func Compare(a, b Any, arena StringArena) (cmp int, ok bool) {
	if a.Tag() != b.Tag() {
		return 0, false
	}
	switch a.Tag() {
	case TagBool:
		av, _ := a.AsBool()
		bv, _ := b.AsBool()
		return boolCompare(av, bv), true
	case TagI32:
		av, _ := a.AsI32()
		bv, _ := b.AsI32()
		return intCompare(av, bv), true
	case TagU32:
		av, _ := a.AsU32()
		bv, _ := b.AsU32()
		return intCompare(av, bv), true
	case TagI64:
		av, _ := a.AsI64()
		bv, _ := b.AsI64()
		return intCompare(av, bv), true
	case TagU64:
		av, _ := a.AsU64()
		bv, _ := b.AsU64()
		return intCompare(av, bv), true
	case TagF32:
		av, _ := a.AsF32()
		bv, _ := b.AsF32()
		return intCompare(av, bv), true
	case TagF64:
		av, _ := a.AsF64()
		bv, _ := b.AsF64()
		return intCompare(av, bv), true
	case TagDate:
		av, _ := a.AsDateMillis()
		bv, _ := b.AsDateMillis()
		return intCompare(av, bv), true
	case TagDay:
		av, _ := a.AsDayCount()
		bv, _ := b.AsDayCount()
		return intCompare(av, bv), true
	case TagShortStr, TagLongStr:
		as, aok := a.AsString(arena)
		bs, bok := b.AsString(arena)
		if !aok || !bok {
			return 0, false
		}
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

type ordered interface {
	~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

func intCompare[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
