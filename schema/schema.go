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

// Package schema describes the in-memory schema object the storage
// engine core consumes (§3). The core never parses a config file itself;
// it is handed a *Schema built by an external config loader, typically
// via YAML (Schema implements yaml.Unmarshaler-compatible struct tags).
package schema

import (
	"fmt"

	"github.com/erigontech/graphcore/value"
)

// PropType is the declared type of a vertex or edge property column.
type PropType uint8

const (
	PTBool PropType = iota
	PTI32
	PTU32
	PTI64
	PTU64
	PTF32
	PTF64
	PTDate
	PTDay
	PTString
	PTStringMap
)

// Tag reports the value.Tag a PropType's values are encoded as.
func (p PropType) Tag() value.Tag {
	switch p {
	case PTBool:
		return value.TagBool
	case PTI32:
		return value.TagI32
	case PTU32:
		return value.TagU32
	case PTI64:
		return value.TagI64
	case PTU64:
		return value.TagU64
	case PTF32:
		return value.TagF32
	case PTF64:
		return value.TagF64
	case PTDate:
		return value.TagDate
	case PTDay:
		return value.TagDay
	case PTString:
		return value.TagLongStr
	case PTStringMap:
		return value.TagStringMap
	default:
		return value.TagEmpty
	}
}

// FixedWidth reports whether values of this type have a fixed in-memory
// width (and are therefore eligible for dense-column / inline-edge-data
// storage per §4.3/§4.4) as opposed to being variable-width (strings).
func (p PropType) FixedWidth() bool {
	switch p {
	case PTString, PTStringMap:
		return false
	default:
		return true
	}
}

// KeyType is the primitive type a vertex label's primary key is declared
// over; exactly one of these five per §3.
type KeyType uint8

const (
	KeyI32 KeyType = iota
	KeyU32
	KeyI64
	KeyU64
	KeyString
)

// Property is one column of a vertex or edge-triplet property list.
type Property struct {
	Name string   `yaml:"name"`
	Type PropType `yaml:"type"`

	// Sparse selects the in-memory-map/journal column strategy over the
	// default dense mmap'd array (§4.3), for properties expected to be
	// populated on a small minority of rows.
	Sparse bool `yaml:"sparse"`
}

// Strategy is a triplet-level CSR storage policy (§4.4).
type Strategy uint8

const (
	StrategyNone Strategy = iota
	StrategySingle
	StrategyMultiple
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "None"
	case StrategySingle:
		return "Single"
	case StrategyMultiple:
		return "Multiple"
	default:
		return "Unknown"
	}
}

// VertexLabel describes one vertex label's schema.
type VertexLabel struct {
	Name           string     `yaml:"name"`
	Label          uint8      `yaml:"label"`
	PrimaryKey     string     `yaml:"primary_key"`
	KeyType        KeyType    `yaml:"key_type"`
	Properties     []Property `yaml:"properties"`
	MaxVertexCount uint32     `yaml:"max_vertex_count"`
}

// PropertyIndex returns the column index of name, or -1 if absent.
func (v *VertexLabel) PropertyIndex(name string) int {
	for i, p := range v.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Triplet describes one (src-label, dst-label, edge-label) edge schema.
type Triplet struct {
	SrcLabel   string     `yaml:"src_label"`
	DstLabel   string     `yaml:"dst_label"`
	EdgeLabel  string     `yaml:"edge_label"`
	Properties []Property `yaml:"properties"`
	InStrategy Strategy   `yaml:"in_strategy"`
	OutStrategy Strategy  `yaml:"out_strategy"`
	Immutable  bool       `yaml:"immutable"`
	SortOnCompaction string `yaml:"sort_on_compaction"` // property name, or ""
}

// PropertyIndex returns the column index of name among t's edge-data
// properties, or -1 if absent.
func (t *Triplet) PropertyIndex(name string) int {
	for i, p := range t.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Key identifies a triplet by its three labels, used as a map key
// throughout the engine (CSR registry, edge table registry).
type Key struct {
	SrcLabel  string
	DstLabel  string
	EdgeLabel string
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s", k.SrcLabel, k.EdgeLabel, k.DstLabel)
}

// HasFixedEdgeData reports whether this triplet's edge data can be
// inlined into the CSR neighbor record (zero or one fixed-width
// property) or must be indirected through the shared edge table
// (multi-property or variable-width) per §4.4.
func (t *Triplet) HasFixedEdgeData() bool {
	if len(t.Properties) == 0 {
		return true
	}
	if len(t.Properties) == 1 && t.Properties[0].Type.FixedWidth() {
		return true
	}
	return false
}

// Schema is the complete consumed schema object (§3): vertex labels,
// edge triplets, and nothing else — the query language, RPC surface,
// and config-file format are all out of core scope (§1).
type Schema struct {
	VertexLabels []VertexLabel `yaml:"vertex_labels"`
	Triplets     []Triplet     `yaml:"triplets"`

	byVertexName map[string]*VertexLabel
	byVertexID   map[uint8]*VertexLabel
	byTriplet    map[Key]*Triplet

	byEdgeLabelName map[string]uint8
	byEdgeLabelID   map[uint8]string
}

// Build resolves the lookup indices used by VertexLabelByName,
// VertexLabelByID, and TripletByKey. Must be called once after
// unmarshaling (or construction) and before the schema is used.
func (s *Schema) Build() error {
	s.byVertexName = make(map[string]*VertexLabel, len(s.VertexLabels))
	s.byVertexID = make(map[uint8]*VertexLabel, len(s.VertexLabels))
	for i := range s.VertexLabels {
		vl := &s.VertexLabels[i]
		if _, dup := s.byVertexName[vl.Name]; dup {
			return fmt.Errorf("schema: duplicate vertex label %q", vl.Name)
		}
		s.byVertexName[vl.Name] = vl
		s.byVertexID[vl.Label] = vl
	}
	s.byTriplet = make(map[Key]*Triplet, len(s.Triplets))
	s.byEdgeLabelName = make(map[string]uint8)
	s.byEdgeLabelID = make(map[uint8]string)
	for i := range s.Triplets {
		tr := &s.Triplets[i]
		k := Key{SrcLabel: tr.SrcLabel, DstLabel: tr.DstLabel, EdgeLabel: tr.EdgeLabel}
		if _, dup := s.byTriplet[k]; dup {
			return fmt.Errorf("schema: duplicate triplet %s", k)
		}
		s.byTriplet[k] = tr
		if _, ok := s.byEdgeLabelName[tr.EdgeLabel]; !ok {
			id := uint8(len(s.byEdgeLabelName))
			s.byEdgeLabelName[tr.EdgeLabel] = id
			s.byEdgeLabelID[id] = tr.EdgeLabel
		}
	}
	return nil
}

// EdgeLabelID reports the dense id assigned to edge-label name, used to
// encode a triplet's edge label into the op stream (§4.7) as a single
// byte rather than the string itself. Distinct edge-label names across
// all triplets share one global id space, independent of the vertex
// labels they connect.
func (s *Schema) EdgeLabelID(name string) (uint8, bool) {
	id, ok := s.byEdgeLabelName[name]
	return id, ok
}

// EdgeLabelName reverses EdgeLabelID.
func (s *Schema) EdgeLabelName(id uint8) (string, bool) {
	name, ok := s.byEdgeLabelID[id]
	return name, ok
}

// TripletByIDs resolves a (src-label, dst-label, edge-label) triplet
// from their dense ids, as decoded off the op stream.
func (s *Schema) TripletByIDs(srcLabel, dstLabel, edgeLabel uint8) (*Triplet, Key, bool) {
	src, ok := s.byVertexID[srcLabel]
	if !ok {
		return nil, Key{}, false
	}
	dst, ok := s.byVertexID[dstLabel]
	if !ok {
		return nil, Key{}, false
	}
	edge, ok := s.byEdgeLabelID[edgeLabel]
	if !ok {
		return nil, Key{}, false
	}
	k := Key{SrcLabel: src.Name, DstLabel: dst.Name, EdgeLabel: edge}
	tr, ok := s.byTriplet[k]
	return tr, k, ok
}

func (s *Schema) VertexLabelByName(name string) (*VertexLabel, bool) {
	vl, ok := s.byVertexName[name]
	return vl, ok
}

func (s *Schema) VertexLabelByID(id uint8) (*VertexLabel, bool) {
	vl, ok := s.byVertexID[id]
	return vl, ok
}

func (s *Schema) TripletByKey(k Key) (*Triplet, bool) {
	tr, ok := s.byTriplet[k]
	return tr, ok
}

func (s *Schema) VertexLabelNum() int { return len(s.VertexLabels) }
func (s *Schema) EdgeLabelNum() int   { return len(s.Triplets) }
