/*
Copyright (C) 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package serial supplies SerialStorage, spec.md §6's external (non-core)
// sequential test-set reader: validate.Run scans one of these once per
// arriving model to compute hold-out metrics. spec.md requires the
// interface to exist without mandating a backend, so this package carries
// a file-backed reference implementation plus the two database backends
// named in the teacher's own import tooling.
package serial

import (
	"context"

	"github.com/launix-de/sparrow/model"
)

// SerialStorage reads a fixed test set from start to end, once per Rewind.
// Implementations are read-only and single-reader; validate.Run serializes
// its own calls per storage instance.
type SerialStorage interface {
	// Rewind resets the read cursor to the beginning of the test set.
	Rewind(ctx context.Context) error
	// Next returns the next example. ok is false once the set is
	// exhausted; a non-nil error means the read failed mid-scan.
	Next(ctx context.Context) (example model.LabeledData, ok bool, err error)
	// Close releases any resources (file handles, DB connections).
	Close() error
}

// ReadAll drains storage into a slice, rewinding first. Convenience helper
// for tests and small test sets; validate.Run itself streams via Next so it
// never holds a whole test set in memory at once.
func ReadAll(ctx context.Context, s SerialStorage) ([]model.LabeledData, error) {
	if err := s.Rewind(ctx); err != nil {
		return nil, err
	}
	var out []model.LabeledData
	for {
		ex, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, ex)
	}
}
