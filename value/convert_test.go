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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareNumeric(t *testing.T) {
	cmp, ok := Compare(FromI32(1), FromI32(2), nil)
	require.True(t, ok)
	require.Equal(t, -1, cmp)

	cmp, ok = Compare(FromI32(2), FromI32(2), nil)
	require.True(t, ok)
	require.Equal(t, 0, cmp)

	cmp, ok = Compare(FromU64(5), FromU64(3), nil)
	require.True(t, ok)
	require.Equal(t, 1, cmp)
}

func TestCompareStrings(t *testing.T) {
	cmp, ok := Compare(FromOwnedString("alice"), FromOwnedString("bob"), nil)
	require.True(t, ok)
	require.Equal(t, -1, cmp)
}

func TestCompareRejectsMismatchedTags(t *testing.T) {
	_, ok := Compare(FromI32(1), FromOwnedString("x"), nil)
	require.False(t, ok)
}

func TestCompareRejectsUnorderedTags(t *testing.T) {
	_, ok := Compare(Empty(), Empty(), nil)
	require.False(t, ok)
}
