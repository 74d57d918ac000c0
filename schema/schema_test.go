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

package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testSchemaYAML = `
vertex_labels:
  - name: V
    label: 0
    primary_key: id
    key_type: 2
    max_vertex_count: 1000000
    properties:
      - name: id
        type: 3
      - name: name
        type: 9
triplets:
  - src_label: V
    dst_label: V
    edge_label: E
    in_strategy: 2
    out_strategy: 2
    properties:
      - name: weight
        type: 6
`

func TestSchemaBuildAndLookup(t *testing.T) {
	var s Schema
	require.NoError(t, yaml.Unmarshal([]byte(testSchemaYAML), &s))
	require.NoError(t, s.Build())

	vl, ok := s.VertexLabelByName("V")
	require.True(t, ok)
	require.Equal(t, uint8(0), vl.Label)
	require.Equal(t, 0, vl.PropertyIndex("id"))
	require.Equal(t, 1, vl.PropertyIndex("name"))
	require.Equal(t, -1, vl.PropertyIndex("missing"))

	tr, ok := s.TripletByKey(Key{SrcLabel: "V", DstLabel: "V", EdgeLabel: "E"})
	require.True(t, ok)
	require.True(t, tr.HasFixedEdgeData())
	require.Equal(t, StrategyMultiple, tr.InStrategy)
}

func TestSchemaDuplicateVertexLabelRejected(t *testing.T) {
	s := Schema{VertexLabels: []VertexLabel{{Name: "V"}, {Name: "V"}}}
	require.Error(t, s.Build())
}
