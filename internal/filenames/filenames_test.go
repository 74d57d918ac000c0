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

package filenames

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathBuilders(t *testing.T) {
	root := "/data/root"
	require.Equal(t, "/data/root/schema", SchemaPath(root))
	require.Equal(t, "/data/root/snapshots/VERSION", SnapshotVersionPath(root))
	require.Equal(t, "/data/root/snapshots/7", SnapshotDir(root, 7))
	require.Equal(t, "/data/root/wal/log_3", WalSegmentPath(root, 3))
	require.Equal(t, "/data/root/runtime/update_txn_42", UpdateTxnDir(root, 42))
	require.Equal(t, "ie_PERSON_KNOWS_PERSON", IEPrefix("PERSON", "PERSON", "KNOWS"))
	require.Equal(t, "oe_PERSON_KNOWS_PERSON", OEPrefix("PERSON", "PERSON", "KNOWS"))
	require.Equal(t, "e_PERSON_KNOWS_PERSON_data", EdataPrefix("PERSON", "PERSON", "KNOWS"))
	require.Equal(t, "vertex_table_PERSON", VertexTablePrefix("PERSON"))
	require.Equal(t, "vertex_map_PERSON", VertexMapPrefix("PERSON"))
}
