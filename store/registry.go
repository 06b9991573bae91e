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
package store

import (
	"sync"

	"github.com/launix-de/sparrow/diskpool"
	"github.com/launix-de/sparrow/stratum"
)

// Registry owns every active Stratum, keyed by weight-bucket index, and
// lazily creates one ("a new Stratum on first use of an index", §4.3.1) the
// first time the assigner routes an example into a bucket it hasn't seen.
type Registry struct {
	mu     sync.Mutex
	strata map[int]*stratum.Stratum

	pool               *diskpool.Pool
	codec              stratum.Codec
	numExamplesPerSlot int
	queueCapacity      int
}

// NewRegistry prepares a Registry that creates Strata backed by pool,
// encoding slot batches with codec.
func NewRegistry(pool *diskpool.Pool, codec stratum.Codec, numExamplesPerSlot, queueCapacity int) *Registry {
	return &Registry{
		strata:             make(map[int]*stratum.Stratum),
		pool:               pool,
		codec:              codec,
		numExamplesPerSlot: numExamplesPerSlot,
		queueCapacity:      queueCapacity,
	}
}

// GetOrCreate returns the Stratum for idx, creating and starting its
// ingest/dequeue workers on first use.
func (r *Registry) GetOrCreate(idx int) *stratum.Stratum {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.strata[idx]; ok {
		return s
	}
	s := stratum.New(idx, r.pool, r.codec, r.numExamplesPerSlot, r.queueCapacity)
	s.RunIngestWorker()
	s.RunDequeueWorker()
	r.strata[idx] = s
	return s
}

// Get returns the Stratum for idx if one already exists.
func (r *Registry) Get(idx int) (*stratum.Stratum, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.strata[idx]
	return s, ok
}

// Indices returns every currently active stratum index, for diagnostics
// and the §8 property-2 slot-accounting check.
func (r *Registry) Indices() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.strata))
	for idx := range r.strata {
		out = append(out, idx)
	}
	return out
}

// TotalSlotCount sums SlotCount() across every active stratum — the
// Σ_i |Strata[i].SlotIndices| term of §8 property 2.
func (r *Registry) TotalSlotCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.strata {
		n += s.SlotCount()
	}
	return n
}
