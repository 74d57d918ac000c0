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
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erigontech/graphcore/errs"
)

// Load reads and unmarshals the YAML schema file at path, then runs
// Build so the returned Schema's lookup indices are ready to use.
func Load(path string) (*Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.KindIOError, "schema.Load", err)
	}
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, errs.New(errs.KindBadInput, "schema.Load", err)
	}
	if err := s.Build(); err != nil {
		return nil, errs.New(errs.KindBadInput, "schema.Load", err)
	}
	return &s, nil
}

// Save marshals s back to YAML at path, for tooling that writes out a
// schema rather than hand-authoring the file (e.g. a schema-migration
// step ahead of a bulk load).
func Save(path string, s *Schema) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return errs.New(errs.KindBadInput, "schema.Save", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errs.New(errs.KindIOError, "schema.Save", err)
	}
	return nil
}
