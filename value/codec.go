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
	"encoding/binary"

	"github.com/erigontech/graphcore/errs"
)

// Encoder is an append-only byte sink used to build a WAL op stream
// (§4.7): every staged op and every Any within it is appended to the
// same per-transaction buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with buf as its initial backing array
// (typically empty, with capacity reserved by the caller).
func NewEncoder(buf []byte) *Encoder { return &Encoder{buf: buf} }

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) WriteByte(b byte) { e.buf = append(e.buf, b) }

func (e *Encoder) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) WriteBytes(b []byte) {
	e.WriteUint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

// Decoder reads back what an Encoder wrote, advancing a cursor over a
// borrowed byte slice.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder { return &Decoder{buf: buf} }

func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

func (d *Decoder) ReadByte() (byte, error) {
	if d.Remaining() < 1 {
		return 0, errs.New(errs.KindBadInput, "value.Decoder.ReadByte", nil)
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	if d.Remaining() < 4 {
		return 0, errs.New(errs.KindBadInput, "value.Decoder.ReadUint32", nil)
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	if d.Remaining() < 8 {
		return 0, errs.New(errs.KindBadInput, "value.Decoder.ReadUint64", nil)
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	if d.Remaining() < int(n) {
		return nil, errs.New(errs.KindBadInput, "value.Decoder.ReadBytes", nil)
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return b, nil
}

// Encode appends a's type tag followed by its payload to e.
func Encode(e *Encoder, a Any) {
	e.WriteByte(byte(a.tag))
	switch a.tag {
	case TagEmpty:
	case TagBool:
		e.WriteByte(byte(a.num))
	case TagI32, TagU32:
		e.WriteUint32(uint32(a.num))
	case TagI64, TagU64, TagF64:
		e.WriteUint64(a.num)
	case TagF32:
		e.WriteUint32(uint32(a.num))
	case TagDate:
		e.WriteUint64(a.num)
	case TagDay:
		e.WriteUint32(uint32(a.num))
	case TagShortStr:
		e.WriteByte(a.shortLen)
		e.buf = append(e.buf, a.short[:a.shortLen]...)
	case TagLongStr:
		// Long strings are encoded by value (not by arena reference):
		// the arena is process-local, but a WAL record must be
		// replayable into a freshly opened graph whose arena offsets
		// differ. A value already holding owned bytes (e.g. one just
		// decoded from another WAL record) encodes directly; anything
		// still viewing a live arena must be resolved first via
		// EncodeString.
		if a.owned == nil {
			panic("value: Encode called on an arena-backed TagLongStr; use EncodeString")
		}
		e.WriteBytes(a.owned)
	case TagRecordView:
		panic("value: record-view Any is not independently encodable")
	}
}

// EncodeString appends a string value (short or long, resolved to raw
// bytes by the caller) tagged as TagLongStr so Decode always reconstructs
// a self-contained value with no arena dependency.
func EncodeString(e *Encoder, s string) {
	e.WriteByte(byte(TagLongStr))
	e.WriteBytes([]byte(s))
}

// Decode reads a type-tagged Any from d. Long strings decode to values
// holding an owned copy of their bytes rather than an arena offset;
// AsString(nil) retrieves it.
func Decode(d *Decoder) (Any, error) {
	tagByte, err := d.ReadByte()
	if err != nil {
		return Any{}, err
	}
	tag := Tag(tagByte)
	switch tag {
	case TagEmpty:
		return Empty(), nil
	case TagBool:
		b, err := d.ReadByte()
		if err != nil {
			return Any{}, err
		}
		return FromBool(b != 0), nil
	case TagI32:
		v, err := d.ReadUint32()
		if err != nil {
			return Any{}, err
		}
		return FromI32(int32(v)), nil
	case TagU32:
		v, err := d.ReadUint32()
		if err != nil {
			return Any{}, err
		}
		return FromU32(v), nil
	case TagI64:
		v, err := d.ReadUint64()
		if err != nil {
			return Any{}, err
		}
		return FromI64(int64(v)), nil
	case TagU64:
		v, err := d.ReadUint64()
		if err != nil {
			return Any{}, err
		}
		return FromU64(v), nil
	case TagF32:
		v, err := d.ReadUint32()
		if err != nil {
			return Any{}, err
		}
		return FromF32(float32frombits(v)), nil
	case TagF64:
		v, err := d.ReadUint64()
		if err != nil {
			return Any{}, err
		}
		return FromF64(float64frombits(v)), nil
	case TagDate:
		v, err := d.ReadUint64()
		if err != nil {
			return Any{}, err
		}
		return FromDate(int64(v)), nil
	case TagDay:
		v, err := d.ReadUint32()
		if err != nil {
			return Any{}, err
		}
		return FromDay(int32(v)), nil
	case TagShortStr:
		n, err := d.ReadByte()
		if err != nil {
			return Any{}, err
		}
		if d.Remaining() < int(n) {
			return Any{}, errs.New(errs.KindBadInput, "value.Decode", nil)
		}
		s := string(d.buf[d.pos : d.pos+int(n)])
		d.pos += int(n)
		a, ok := FromShortString(s)
		if !ok {
			return Any{}, errs.New(errs.KindCorrupt, "value.Decode", nil)
		}
		return a, nil
	case TagLongStr:
		b, err := d.ReadBytes()
		if err != nil {
			return Any{}, err
		}
		// Reconstructed from a WAL record: the bytes are owned by the
		// decoder's buffer, so copy them before handing out a value
		// that the caller may retain past the WAL buffer's lifetime.
		return newDecodedLongString(string(b)), nil
	default:
		return Any{}, errs.New(errs.KindCorrupt, "value.Decode", nil)
	}
}
