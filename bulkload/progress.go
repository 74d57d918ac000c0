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

package bulkload

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erigontech/graphcore/errs"
)

// stageStatus is one line of §4.9's "Loading -> Loaded -> Committed"
// progress log.
type stageStatus string

const (
	stageLoading   stageStatus = "Loading"
	stageLoaded    stageStatus = "Loaded"
	stageCommitted stageStatus = "Committed"
)

// progressLog appends one line per label/triplet stage transition to
// bulk_load_progress.log, tagged with a run id so two partially
// completed loads into the same tmp/ directory are distinguishable on
// resume (SPEC_FULL.md §4).
type progressLog struct {
	mu    sync.Mutex
	f     *os.File
	runID uuid.UUID
}

func openProgressLog(path string) (*progressLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.New(errs.KindIOError, "bulkload.openProgressLog", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errs.New(errs.KindIOError, "bulkload.openProgressLog", err)
	}
	return &progressLog{f: f, runID: uuid.New()}, nil
}

func (p *progressLog) mark(name string, status stageStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf("%s\t%s\t%s\t%s\n", p.runID, time.Now().UTC().Format(time.RFC3339Nano), name, status)
	if _, err := p.f.WriteString(line); err != nil {
		return errs.New(errs.KindIOError, "bulkload.progressLog.mark", err)
	}
	return p.f.Sync()
}

func (p *progressLog) close() error {
	return p.f.Close()
}
