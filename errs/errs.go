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

// Package errs defines the error-kind taxonomy shared by every storage
// engine package (value, pkindex, vertextable, csr, wal, txn, bulkload,
// snapshot).
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds of the storage engine boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindTypeMismatch
	KindOutOfRange
	KindNotFound
	KindDuplicate
	KindDisallowed
	KindConflict
	KindBadInput
	KindIOError
	KindCorrupt
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindTypeMismatch:
		return "kTypeMismatch"
	case KindOutOfRange:
		return "kOutOfRange"
	case KindNotFound:
		return "kNotFound"
	case KindDuplicate:
		return "kDuplicate"
	case KindDisallowed:
		return "kDisallowed"
	case KindConflict:
		return "kConflict"
	case KindBadInput:
		return "kBadInput"
	case KindIOError:
		return "kIOError"
	case KindCorrupt:
		return "kCorrupt"
	case KindUnsupported:
		return "kUnsupported"
	default:
		return "kUnknown"
	}
}

// Sentinel errors usable with errors.Is. A GraphError matches its kind's
// sentinel (via GraphError.Is) whether or not it wraps a cause, so
// callers who don't care about Op/Err detail can still match on kind
// alone.
var (
	ErrTypeMismatch = errors.New("kTypeMismatch")
	ErrOutOfRange   = errors.New("kOutOfRange")
	ErrNotFound     = errors.New("kNotFound")
	ErrDuplicate    = errors.New("kDuplicate")
	ErrDisallowed   = errors.New("kDisallowed")
	ErrConflict     = errors.New("kConflict")
	ErrBadInput     = errors.New("kBadInput")
	ErrIOError      = errors.New("kIOError")
	ErrCorrupt      = errors.New("kCorrupt")
	ErrUnsupported  = errors.New("kUnsupported")
)

var sentinels = map[Kind]error{
	KindTypeMismatch: ErrTypeMismatch,
	KindOutOfRange:   ErrOutOfRange,
	KindNotFound:     ErrNotFound,
	KindDuplicate:    ErrDuplicate,
	KindDisallowed:   ErrDisallowed,
	KindConflict:     ErrConflict,
	KindBadInput:     ErrBadInput,
	KindIOError:      ErrIOError,
	KindCorrupt:      ErrCorrupt,
	KindUnsupported:  ErrUnsupported,
}

// GraphError carries the failing operation name and the underlying cause
// (if any) alongside the error kind, so a caller can either match on the
// kind via errors.Is or inspect Err for the low-level cause.
type GraphError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *GraphError) Error() string {
	sentinel := sentinels[e.Kind]
	if e.Err != nil && e.Err != sentinel {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *GraphError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return sentinels[e.Kind]
}

// Is reports whether target is the sentinel for e's kind.
func (e *GraphError) Is(target error) bool {
	return target != nil && target == sentinels[e.Kind]
}

// New builds a GraphError for op failing with kind, optionally wrapping
// cause (cause may be nil).
func New(kind Kind, op string, cause error) *GraphError {
	return &GraphError{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err (or something it wraps) is a GraphError of kind.
func Is(err error, kind Kind) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Kind == kind
	}
	return errors.Is(err, sentinels[kind])
}
