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

// Package value implements the tagged Any union described in the storage
// engine's data model: a closed set of primitive property types plus a
// per-column string arena. Every property value read from or written to
// a vertex/edge column carries its type tag.
package value

import "fmt"

// Tag is the one-byte discriminant written ahead of every encoded Any.
type Tag uint8

const (
	TagEmpty Tag = iota
	TagBool
	TagI32
	TagU32
	TagI64
	TagU64
	TagF32
	TagF64
	TagDate       // milliseconds since epoch
	TagDay        // days since epoch
	TagShortStr   // small-string-optimized, inline bytes, no arena
	TagLongStr    // (offset, length) view into a column's string arena
	TagRecordView // pointer + column-layout descriptor into the edge table
	TagStringMap  // interning target only; never produced by From*
)

func (t Tag) String() string {
	switch t {
	case TagEmpty:
		return "empty"
	case TagBool:
		return "bool"
	case TagI32:
		return "i32"
	case TagU32:
		return "u32"
	case TagI64:
		return "i64"
	case TagU64:
		return "u64"
	case TagF32:
		return "f32"
	case TagF64:
		return "f64"
	case TagDate:
		return "date"
	case TagDay:
		return "day"
	case TagShortStr:
		return "short_string"
	case TagLongStr:
		return "long_string"
	case TagRecordView:
		return "record_view"
	case TagStringMap:
		return "string_map"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

// shortStrMax is the inline capacity of a TagShortStr value: small enough
// to keep Any a fixed-size value type, large enough to cover most vertex
// labels/short identifiers without touching the arena.
const shortStrMax = 14

// RecordView is a non-owning pointer into the shared edge table: RowIndex
// addresses a row, Layout names the column layout to interpret it with.
// Edge data storage (§4.4) routes multi-property / variable-width edge
// properties through this indirection rather than inlining them.
type RecordView struct {
	Layout   string
	RowIndex uint32
}

// Any is a tagged union over the primitive property types. It is a plain
// value type: copying an Any copies the tag and its inline payload; long
// strings and record-views are non-owning references into a separately
// owned arena or edge table and remain valid only as long as that arena
// or table does.
type Any struct {
	tag Tag

	num uint64 // bool/i32/u32/i64/u64/f32/f64 bits, date millis, day count

	// TagShortStr: inline bytes, shortLen valid bytes.
	short    [shortStrMax]byte
	shortLen uint8

	// TagLongStr: non-owning view into an external arena, UNLESS owned
	// is non-nil, in which case the value is self-contained (produced
	// by WAL decode, which has no arena to view into at decode time).
	longOff uint32
	longLen uint32
	owned   []byte

	rec RecordView
}

// Tag reports the type discriminant of a.
func (a Any) Tag() Tag { return a.tag }

// IsEmpty reports whether a holds no value.
func (a Any) IsEmpty() bool { return a.tag == TagEmpty }

// --- constructors -----------------------------------------------------

// Empty returns the empty Any.
func Empty() Any { return Any{tag: TagEmpty} }

func FromBool(v bool) Any {
	var n uint64
	if v {
		n = 1
	}
	return Any{tag: TagBool, num: n}
}

func FromI32(v int32) Any { return Any{tag: TagI32, num: uint64(uint32(v))} }
func FromU32(v uint32) Any { return Any{tag: TagU32, num: uint64(v)} }
func FromI64(v int64) Any  { return Any{tag: TagI64, num: uint64(v)} }
func FromU64(v uint64) Any { return Any{tag: TagU64, num: v} }

func FromF32(v float32) Any {
	return Any{tag: TagF32, num: uint64(float32bits(v))}
}

func FromF64(v float64) Any {
	return Any{tag: TagF64, num: float64bits(v)}
}

// FromDate builds a date value from milliseconds since the Unix epoch.
func FromDate(millis int64) Any { return Any{tag: TagDate, num: uint64(millis)} }

// FromDay builds a day value from days since the Unix epoch.
func FromDay(days int32) Any { return Any{tag: TagDay, num: uint64(uint32(days))} }

// FromShortString builds an inline string value. Callers should prefer
// this for strings known to fit shortStrMax bytes; FromOwnedString
// should be used above that size, or the arena-backed column path should
// intern through a StringArena and produce FromLongString directly.
func FromShortString(s string) (Any, bool) {
	if len(s) > shortStrMax {
		return Any{}, false
	}
	var a Any
	a.tag = TagShortStr
	a.shortLen = uint8(len(s))
	copy(a.short[:], s)
	return a, true
}

// FromLongString builds a string value that is a view into an arena at
// (offset, length). The caller (typically a column writer that has just
// interned the string) is responsible for the arena outliving a.
func FromLongString(offset, length uint32) Any {
	return Any{tag: TagLongStr, longOff: offset, longLen: length}
}

// FromOwnedString builds a self-contained string value that does not
// depend on any arena: short strings are stored inline, longer ones as
// an owned copy of s. Used by column strategies (e.g. the sparse column
// of internal/vertextable) that hold values independent of a column
// arena.
func FromOwnedString(s string) Any {
	if a, ok := FromShortString(s); ok {
		return a
	}
	return newDecodedLongString(s)
}

// newDecodedLongString builds a self-contained long-string value from
// bytes that have already been copied out of a decode buffer. Used by
// Decode, which has no arena to intern into, and by FromOwnedString.
func newDecodedLongString(s string) Any {
	return Any{tag: TagLongStr, owned: []byte(s), longLen: uint32(len(s))}
}

// FromRecordView builds an edge-table indirection value.
func FromRecordView(layout string, rowIndex uint32) Any {
	return Any{tag: TagRecordView, rec: RecordView{Layout: layout, RowIndex: rowIndex}}
}

// --- accessors ----------------------------------------------------------

func (a Any) AsBool() (bool, bool) {
	if a.tag != TagBool {
		return false, false
	}
	return a.num != 0, true
}

func (a Any) AsI32() (int32, bool) {
	if a.tag != TagI32 {
		return 0, false
	}
	return int32(uint32(a.num)), true
}

func (a Any) AsU32() (uint32, bool) {
	if a.tag != TagU32 {
		return 0, false
	}
	return uint32(a.num), true
}

func (a Any) AsI64() (int64, bool) {
	if a.tag != TagI64 {
		return 0, false
	}
	return int64(a.num), true
}

func (a Any) AsU64() (uint64, bool) {
	if a.tag != TagU64 {
		return 0, false
	}
	return a.num, true
}

func (a Any) AsF32() (float32, bool) {
	if a.tag != TagF32 {
		return 0, false
	}
	return float32frombits(uint32(a.num)), true
}

func (a Any) AsF64() (float64, bool) {
	if a.tag != TagF64 {
		return 0, false
	}
	return float64frombits(a.num), true
}

func (a Any) AsDateMillis() (int64, bool) {
	if a.tag != TagDate {
		return 0, false
	}
	return int64(a.num), true
}

func (a Any) AsDayCount() (int32, bool) {
	if a.tag != TagDay {
		return 0, false
	}
	return int32(uint32(a.num)), true
}

// AsShortString returns the inline string for a TagShortStr value.
func (a Any) AsShortString() (string, bool) {
	if a.tag != TagShortStr {
		return "", false
	}
	return string(a.short[:a.shortLen]), true
}

// LongStringView returns the (offset, length) a TagLongStr value
// references into its arena.
func (a Any) LongStringView() (offset, length uint32, ok bool) {
	if a.tag != TagLongStr {
		return 0, 0, false
	}
	return a.longOff, a.longLen, true
}

// AsRecordView returns the edge-table indirection of a TagRecordView value.
func (a Any) AsRecordView() (RecordView, bool) {
	if a.tag != TagRecordView {
		return RecordView{}, false
	}
	return a.rec, true
}

// StringArena resolves the backing bytes of a TagShortStr or TagLongStr
// value to a string. arena is consulted only for TagLongStr; it may be
// nil for short strings.
type StringArena interface {
	String(offset, length uint32) string
}

// AsString resolves a to a Go string regardless of whether it is a short
// inline string or an arena-backed long string.
func (a Any) AsString(arena StringArena) (string, bool) {
	switch a.tag {
	case TagShortStr:
		return string(a.short[:a.shortLen]), true
	case TagLongStr:
		if a.owned != nil {
			return string(a.owned), true
		}
		if arena == nil {
			return "", false
		}
		return arena.String(a.longOff, a.longLen), true
	default:
		return "", false
	}
}

func (a Any) String() string {
	switch a.tag {
	case TagEmpty:
		return "<empty>"
	case TagBool:
		b, _ := a.AsBool()
		return fmt.Sprintf("%v", b)
	case TagI32:
		v, _ := a.AsI32()
		return fmt.Sprintf("%d", v)
	case TagU32:
		v, _ := a.AsU32()
		return fmt.Sprintf("%d", v)
	case TagI64:
		v, _ := a.AsI64()
		return fmt.Sprintf("%d", v)
	case TagU64:
		v, _ := a.AsU64()
		return fmt.Sprintf("%d", v)
	case TagF32:
		v, _ := a.AsF32()
		return fmt.Sprintf("%g", v)
	case TagF64:
		v, _ := a.AsF64()
		return fmt.Sprintf("%g", v)
	case TagDate:
		v, _ := a.AsDateMillis()
		return fmt.Sprintf("date(%d)", v)
	case TagDay:
		v, _ := a.AsDayCount()
		return fmt.Sprintf("day(%d)", v)
	case TagShortStr:
		s, _ := a.AsShortString()
		return s
	case TagLongStr:
		off, length, _ := a.LongStringView()
		return fmt.Sprintf("longstr(%d,%d)", off, length)
	case TagRecordView:
		return fmt.Sprintf("record(%s,%d)", a.rec.Layout, a.rec.RowIndex)
	default:
		return "<unknown>"
	}
}
