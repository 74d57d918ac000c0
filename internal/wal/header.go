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

// Package wal implements the append-only write-ahead log of §4.8: a
// sequence of segment files under wal/ (log_0, log_1, …), each record
// prefixed by a fixed WalHeader and self-delimited by its length field.
package wal

import (
	"encoding/binary"

	"github.com/erigontech/graphcore/errs"
)

// RecordType distinguishes what a WAL record's payload holds.
type RecordType uint8

const (
	// RecordUpdate is an update-transaction op stream (§4.7).
	RecordUpdate RecordType = 1
	// RecordCompaction is a supplemented marker noting that a compaction
	// ran and produced a new snapshot version, so a reader scanning the
	// log for diagnostics (or a future incremental-compaction scheme)
	// can find the boundary without reopening the snapshot directory.
	// Replay does not apply it to graph state.
	RecordCompaction RecordType = 2
)

// headerSize is WalHeader's encoded width: u32 length + u8 type + u32
// timestamp (§4.8, §6's "WAL record format").
const headerSize = 9

// WalHeader precedes every record's payload in a segment file.
type WalHeader struct {
	Length    uint32
	Type      RecordType
	Timestamp uint32
}

func encodeHeader(h WalHeader) []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Length)
	buf[4] = byte(h.Type)
	binary.LittleEndian.PutUint32(buf[5:9], h.Timestamp)
	return buf
}

func decodeHeader(buf []byte) (WalHeader, error) {
	if len(buf) < headerSize {
		return WalHeader{}, errs.New(errs.KindCorrupt, "wal.decodeHeader", nil)
	}
	return WalHeader{
		Length:    binary.LittleEndian.Uint32(buf[0:4]),
		Type:      RecordType(buf[4]),
		Timestamp: binary.LittleEndian.Uint32(buf[5:9]),
	}, nil
}
