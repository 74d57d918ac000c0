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

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"

	"github.com/erigontech/graphcore/errs"
	"github.com/erigontech/graphcore/internal/filenames"
	"github.com/erigontech/graphcore/schema"
)

// Save writes p's on-disk form under dir as <label>.keys, <label>.indices
// and <label>.meta (§6): the keys array indexed by vid, the bucket
// displacement table, and a small header recording key count and kind.
func (p *PerfectHashIndexer) Save(dir, label string) error {
	prefix := filepath.Join(dir, filenames.VertexMapPrefix(label))

	meta := make([]byte, 5)
	binary.LittleEndian.PutUint32(meta[0:4], uint32(len(p.keys)))
	meta[4] = byte(p.kind)
	if err := os.WriteFile(prefix+".meta", meta, 0o644); err != nil {
		return errs.New(errs.KindIOError, "pkindex.Save", err)
	}

	indices := make([]byte, 4+4*len(p.displacement))
	binary.LittleEndian.PutUint32(indices[0:4], p.numBuckets)
	for i, d := range p.displacement {
		binary.LittleEndian.PutUint32(indices[4+4*i:8+4*i], d)
	}
	if err := os.WriteFile(prefix+".indices", indices, 0o644); err != nil {
		return errs.New(errs.KindIOError, "pkindex.Save", err)
	}

	if p.kind == schema.KeyString {
		return p.saveStringKeys(prefix)
	}
	return p.saveNumericKeys(prefix)
}

func (p *PerfectHashIndexer) saveNumericKeys(prefix string) error {
	buf := make([]byte, 8*len(p.keys))
	for i, k := range p.keys {
		binary.LittleEndian.PutUint64(buf[8*i:8*i+8], k.num)
	}
	if err := os.WriteFile(prefix+".keys", buf, 0o644); err != nil {
		return errs.New(errs.KindIOError, "pkindex.saveNumericKeys", err)
	}
	return nil
}

func (p *PerfectHashIndexer) saveStringKeys(prefix string) error {
	items := make([]byte, 8*len(p.keys))
	var data []byte
	for i, k := range p.keys {
		off := uint32(len(data))
		b := []byte(k.str)
		data = append(data, b...)
		binary.LittleEndian.PutUint32(items[8*i:8*i+4], off)
		binary.LittleEndian.PutUint32(items[8*i+4:8*i+8], uint32(len(b)))
	}
	if err := os.WriteFile(prefix+".keys.items", items, 0o644); err != nil {
		return errs.New(errs.KindIOError, "pkindex.saveStringKeys", err)
	}
	if err := os.WriteFile(prefix+".keys.data", data, 0o644); err != nil {
		return errs.New(errs.KindIOError, "pkindex.saveStringKeys", err)
	}
	return nil
}

// Load memory-maps a PerfectHashIndexer previously written by Save.
func Load(dir, label string) (*PerfectHashIndexer, error) {
	prefix := filepath.Join(dir, filenames.VertexMapPrefix(label))

	meta, err := os.ReadFile(prefix + ".meta")
	if err != nil {
		return nil, errs.New(errs.KindIOError, "pkindex.Load", err)
	}
	if len(meta) < 5 {
		return nil, errs.New(errs.KindCorrupt, "pkindex.Load", nil)
	}
	n := binary.LittleEndian.Uint32(meta[0:4])
	kind := schema.KeyType(meta[4])

	indicesBytes, indicesMM, err := mmapFile(prefix + ".indices")
	if err != nil {
		return nil, err
	}
	defer indicesMM.Unmap()
	if len(indicesBytes) < 4 {
		return nil, errs.New(errs.KindCorrupt, "pkindex.Load", nil)
	}
	numBuckets := binary.LittleEndian.Uint32(indicesBytes[0:4])
	displacement := make([]uint32, numBuckets)
	for i := range displacement {
		off := 4 + 4*i
		if off+4 > len(indicesBytes) {
			return nil, errs.New(errs.KindCorrupt, "pkindex.Load", nil)
		}
		displacement[i] = binary.LittleEndian.Uint32(indicesBytes[off : off+4])
	}

	keys := make([]OID, n)
	if kind == schema.KeyString {
		if err := loadStringKeys(prefix, keys); err != nil {
			return nil, err
		}
	} else {
		if err := loadNumericKeys(prefix, kind, keys); err != nil {
			return nil, err
		}
	}

	return &PerfectHashIndexer{
		kind:         kind,
		keys:         keys,
		displacement: displacement,
		numBuckets:   numBuckets,
	}, nil
}

func loadNumericKeys(prefix string, kind schema.KeyType, out []OID) error {
	if len(out) == 0 {
		return nil
	}
	buf, mm, err := mmapFile(prefix + ".keys")
	if err != nil {
		return err
	}
	defer mm.Unmap()
	if len(buf) < 8*len(out) {
		return errs.New(errs.KindCorrupt, "pkindex.loadNumericKeys", nil)
	}
	for i := range out {
		n := binary.LittleEndian.Uint64(buf[8*i : 8*i+8])
		switch kind {
		case schema.KeyI32:
			out[i] = OIDFromI32(int32(uint32(n)))
		case schema.KeyU32:
			out[i] = OIDFromU32(uint32(n))
		case schema.KeyI64:
			out[i] = OIDFromI64(int64(n))
		case schema.KeyU64:
			out[i] = OIDFromU64(n)
		default:
			return errs.New(errs.KindCorrupt, "pkindex.loadNumericKeys", nil)
		}
	}
	return nil
}

func loadStringKeys(prefix string, out []OID) error {
	if len(out) == 0 {
		return nil
	}
	items, itemsMM, err := mmapFile(prefix + ".keys.items")
	if err != nil {
		return err
	}
	defer itemsMM.Unmap()
	data, dataMM, err := mmapFile(prefix + ".keys.data")
	if err != nil {
		return err
	}
	defer dataMM.Unmap()
	if len(items) < 8*len(out) {
		return errs.New(errs.KindCorrupt, "pkindex.loadStringKeys", nil)
	}
	for i := range out {
		off := binary.LittleEndian.Uint32(items[8*i : 8*i+4])
		length := binary.LittleEndian.Uint32(items[8*i+4 : 8*i+8])
		if int(off+length) > len(data) {
			return errs.New(errs.KindCorrupt, "pkindex.loadStringKeys", nil)
		}
		out[i] = OIDFromString(string(data[off : off+length]))
	}
	return nil
}

// closer is satisfied by mmap.MMap (Unmap) and by the no-op stand-in
// used for zero-length files, where mmap.Map itself would fail.
type closer interface{ Unmap() error }

type noopCloser struct{}

func (noopCloser) Unmap() error { return nil }

func mmapFile(path string) ([]byte, closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errs.New(errs.KindIOError, "pkindex.mmapFile", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, nil, errs.New(errs.KindIOError, "pkindex.mmapFile", err)
	}
	if fi.Size() == 0 {
		return nil, noopCloser{}, nil
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, errs.New(errs.KindIOError, "pkindex.mmapFile", err)
	}
	return mm, mm, nil
}
