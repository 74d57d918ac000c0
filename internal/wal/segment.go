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
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
)

// listSegments returns the segment indices present under root's wal/
// directory (parsed from log_<n> filenames), in ascending order.
func listSegments(root string) ([]int, error) {
	dir := filenames.WalDir(root)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.KindIOError, "wal.listSegments", err)
	}
	var segs []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "log_") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(name, "log_"))
		if err != nil {
			continue
		}
		segs = append(segs, n)
	}
	sort.Ints(segs)
	return segs, nil
}

func segmentPath(root string, n int) string {
	return filenames.WalSegmentPath(root, n)
}

func lockPath(root string) string {
	return filepath.Join(filenames.WalDir(root), ".lock")
}
