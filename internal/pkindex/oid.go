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

// Package pkindex implements the per-vertex-label primary-key indexer of
// §4.2: a mapping from external oid (one of five primitive key types) to
// a dense internal vid, with two builds — a mutable open-addressing hash
// indexer for the update path, and a minimal-perfect-hash indexer for
// the bulk-loaded snapshot path.
package pkindex

import (
	"encoding/binary"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/value"
)

// OID is an external vertex identifier: one of i32, u32, i64, u64, or
// string, per the label's fixed primary-key type (§3).
type OID struct {
	kind schema.KeyType
	num  uint64
	str  string
}

func OIDFromI32(v int32) OID    { return OID{kind: schema.KeyI32, num: uint64(uint32(v))} }
func OIDFromU32(v uint32) OID   { return OID{kind: schema.KeyU32, num: uint64(v)} }
func OIDFromI64(v int64) OID    { return OID{kind: schema.KeyI64, num: uint64(v)} }
func OIDFromU64(v uint64) OID   { return OID{kind: schema.KeyU64, num: v} }
func OIDFromString(v string) OID { return OID{kind: schema.KeyString, str: v} }

func (o OID) Kind() schema.KeyType { return o.kind }

func (o OID) I32() int32    { return int32(uint32(o.num)) }
func (o OID) U32() uint32   { return uint32(o.num) }
func (o OID) I64() int64    { return int64(o.num) }
func (o OID) U64() uint64   { return o.num }
func (o OID) String() string {
	if o.kind == schema.KeyString {
		return o.str
	}
	return ""
}

// Bytes returns a canonical byte representation of o suitable for
// hashing. Numeric kinds are encoded little-endian; string keys are
// returned as their raw UTF-8 bytes.
func (o OID) Bytes() []byte {
	if o.kind == schema.KeyString {
		return []byte(o.str)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], o.num)
	return buf[:]
}

// Any converts o to a value.Any of the matching tag, for staging into a
// WAL op (§4.7) or handing back across the package boundary.
func (o OID) Any() value.Any {
	switch o.kind {
	case schema.KeyI32:
		return value.FromI32(o.I32())
	case schema.KeyU32:
		return value.FromU32(o.U32())
	case schema.KeyI64:
		return value.FromI64(o.I64())
	case schema.KeyU64:
		return value.FromU64(o.U64())
	case schema.KeyString:
		return value.FromOwnedString(o.str)
	default:
		return value.Empty()
	}
}

// OIDFromAny converts a value.Any staged in a WAL op or passed in at the
// programmatic surface (§6) into an OID matching kind, erroring if a's
// tag doesn't match the label's declared key type.
func OIDFromAny(kind schema.KeyType, a value.Any) (OID, error) {
	switch kind {
	case schema.KeyI32:
		v, ok := a.AsI32()
		if !ok {
			return OID{}, errs.New(errs.KindTypeMismatch, "pkindex.OIDFromAny", nil)
		}
		return OIDFromI32(v), nil
	case schema.KeyU32:
		v, ok := a.AsU32()
		if !ok {
			return OID{}, errs.New(errs.KindTypeMismatch, "pkindex.OIDFromAny", nil)
		}
		return OIDFromU32(v), nil
	case schema.KeyI64:
		v, ok := a.AsI64()
		if !ok {
			return OID{}, errs.New(errs.KindTypeMismatch, "pkindex.OIDFromAny", nil)
		}
		return OIDFromI64(v), nil
	case schema.KeyU64:
		v, ok := a.AsU64()
		if !ok {
			return OID{}, errs.New(errs.KindTypeMismatch, "pkindex.OIDFromAny", nil)
		}
		return OIDFromU64(v), nil
	case schema.KeyString:
		v, ok := a.AsString(nil)
		if !ok {
			return OID{}, errs.New(errs.KindTypeMismatch, "pkindex.OIDFromAny", nil)
		}
		return OIDFromString(v), nil
	default:
		return OID{}, errs.New(errs.KindUnsupported, "pkindex.OIDFromAny", nil)
	}
}

// Equal reports whether o and other denote the same external identifier.
func (o OID) Equal(other OID) bool {
	if o.kind != other.kind {
		return false
	}
	if o.kind == schema.KeyString {
		return o.str == other.str
	}
	return o.num == other.num
}
