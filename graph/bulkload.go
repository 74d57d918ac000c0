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

package graph

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/erigontech/graphcore/bulkload"
	"github.com/erigontech/graphcore/schema"
	"github.com/erigontech/graphcore/snapshot"
)

// BulkLoad runs a bulk load against root and publishes its result as a
// new snapshot version (§4.9, §6: "invoked prior to first open for an
// empty data root"). It opens its own transient state rather than
// taking an already-open *Graph, since the whole point is to populate a
// root nothing has opened for reads yet; callers reopen with Open
// afterward to get a live handle. A zero log value is valid and
// discards all output.
func BulkLoad(root string, sch *schema.Schema, cfg bulkload.LoadingConfig, log zerolog.Logger) (newVersion uint32, err error) {
	version, promoted, err := snapshot.Open(root)
	if err != nil {
		return 0, err
	}

	state, err := openState(root, version, promoted, sch)
	if err != nil {
		return 0, err
	}
	defer closeState(state)

	loader, err := bulkload.NewLoader(state, root, cfg, log)
	if err != nil {
		return 0, err
	}
	defer loader.Close()

	if err := loader.Run(context.Background()); err != nil {
		return 0, err
	}

	newVersion = version + 1
	mgr := snapshot.NewManager(root, log)
	if err := mgr.Stage(state, newVersion); err != nil {
		return 0, err
	}
	if err := mgr.Promote(newVersion); err != nil {
		return 0, err
	}
	log.Info().Uint32("version", newVersion).Msg("bulk load published")
	return newVersion, nil
}
