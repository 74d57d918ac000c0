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

package arena

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndResolve(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(filepath.Join(dir, "strings.data"))
	require.NoError(t, err)
	defer a.Close()

	off1, len1, err := a.Append([]byte("alice"))
	require.NoError(t, err)
	off2, len2, err := a.Append([]byte("bob"))
	require.NoError(t, err)

	require.Equal(t, "alice", a.String(off1, len1))
	require.Equal(t, "bob", a.String(off2, len2))
}

func TestAppendGrowsBeyondInitialCapacity(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(filepath.Join(dir, "strings.data"))
	require.NoError(t, err)
	defer a.Close()

	big := make([]byte, initialArenaSize*3)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	off, length, err := a.Append(big)
	require.NoError(t, err)
	require.Equal(t, string(big), a.String(off, length))
}

func TestReopenPreservesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strings.data")
	a, err := Open(path)
	require.NoError(t, err)
	off, length, err := a.Append([]byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, a.Sync())
	require.NoError(t, a.Close())

	a2, err := Open(path)
	require.NoError(t, err)
	defer a2.Close()
	require.Equal(t, "persisted", a2.String(off, length))
}

func TestWorkerArenaNaming(t *testing.T) {
	dir := t.TempDir()
	w, err := OpenWorker(dir, 3)
	require.NoError(t, err)
	defer w.Close()
	require.Equal(t, 3, w.WorkerID)
}
