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

package pkindex

import "github.com/spaolacci/murmur3"

// hashSeed computes a seeded 64-bit hash of an oid's canonical bytes,
// used both by the mutable open-addressing table's probe sequence and
// by the perfect-hash builder's two independent hash functions (the
// same seeded-murmur3 family, with a different seed per use).
func hashSeed(b []byte, seed uint32) uint64 {
	return murmur3.Sum64WithSeed(b, seed)
}

// ShardOf hashes oid into one of numShards buckets. The bulk loader does
// not call it: its indexer inserts for a label all go through one
// per-label mutex, not through per-shard locks.
func ShardOf(o OID, numShards int) int {
	if numShards <= 1 {
		return 0
	}
	h := hashSeed(o.Bytes(), 0)
	return int(h % uint64(numShards))
}
