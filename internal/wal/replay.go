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

package wal

import (
	"io"
	"os"

	"github.com/erigontech/graphcore/errs"
)

// ApplyFunc is called once per RecordUpdate record with timestamp > the
// snapshot version Replay was started from. The op stream in payload is
// exactly what an UpdateTxn.Commit wrote (§4.7).
type ApplyFunc func(timestamp uint32, payload []byte) error

// Replay scans every WAL segment under root in order and, for each
// RecordUpdate record whose timestamp exceeds fromVersion, invokes
// apply with its payload. RecordCompaction records are skipped (they
// carry no graph-state op stream). It returns the maximum timestamp
// observed among applied records, or fromVersion if none were found —
// the caller's new in-memory timestamp (§4.8).
func Replay(root string, fromVersion uint32, apply ApplyFunc) (uint32, error) {
	segs, err := listSegments(root)
	if err != nil {
		return fromVersion, err
	}
	maxTs := fromVersion
	for _, seg := range segs {
		ts, err := replaySegment(segmentPath(root, seg), fromVersion, apply)
		if err != nil {
			return maxTs, err
		}
		if ts > maxTs {
			maxTs = ts
		}
	}
	return maxTs, nil
}

func replaySegment(path string, fromVersion uint32, apply ApplyFunc) (uint32, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return fromVersion, nil
	}
	if err != nil {
		return fromVersion, errs.New(errs.KindIOError, "wal.replaySegment", err)
	}
	defer f.Close()

	maxTs := fromVersion
	hbuf := make([]byte, headerSize)
	for {
		if _, err := io.ReadFull(f, hbuf); err != nil {
			if err == io.EOF {
				break
			}
			return maxTs, errs.New(errs.KindCorrupt, "wal.replaySegment", err)
		}
		header, err := decodeHeader(hbuf)
		if err != nil {
			return maxTs, err
		}
		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(f, payload); err != nil {
			return maxTs, errs.New(errs.KindCorrupt, "wal.replaySegment", err)
		}
		if header.Type != RecordUpdate || header.Timestamp <= fromVersion {
			continue
		}
		if err := apply(header.Timestamp, payload); err != nil {
			return maxTs, err
		}
		if header.Timestamp > maxTs {
			maxTs = header.Timestamp
		}
	}
	return maxTs, nil
}
