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

// Package store implements spec.md §4.3: the stratified store built from
// strata, a lock-free weights table, an assigner, and a sampler.
package store

import (
	"math"
	"sync/atomic"

	"github.com/launix-de/NonLockingReadMap"
)

// weightEntry is one row of the weights table: stratum index → summed
// weight. The weight itself lives in cell, a pointer shared by every copy
// of the entry the map ever hands out, so an update never has to replace
// the entry in the map at all — it CASes the cell directly. That is what
// makes concurrent Add calls on the same index safe: NonLockingReadMap.Set
// always commits whatever value it is given (it has no compare-and-swap
// of its own), so building read-modify-write on top of Set by itself lets
// a slow writer's stale computation clobber a fast writer's fresh one.
// Routing updates through an atomic cell instead sidesteps Set entirely
// once the index exists.
type weightEntry struct {
	Index int
	cell  *atomic.Uint64 // math.Float64bits(weight)
}

func (e weightEntry) GetKey() int       { return e.Index }
func (e weightEntry) ComputeSize() uint { return 32 }

// Weight reads the entry's current weight.
func (e weightEntry) Weight() float64 {
	return math.Float64frombits(e.cell.Load())
}

// newWeightEntry builds a standalone entry with its own cell set to w.
// Used by tests that construct weightEntry slices directly instead of
// going through a WeightsTable.
func newWeightEntry(idx int, w float64) weightEntry {
	cell := new(atomic.Uint64)
	cell.Store(math.Float64bits(w))
	return weightEntry{Index: idx, cell: cell}
}

// WeightsTable maps stratum index → sum of example weights currently held
// there (spec.md §4.3.3). Reads never block writers and vice versa —
// backed by the teacher's NonLockingReadMap, the same structure it uses
// for its delta-storage bitmap overlay. Per-index updates CAS-loop over
// the entry's own atomic cell, so two racing Adds on one index never lose
// either delta.
type WeightsTable struct {
	m NonLockingReadMap.NonLockingReadMap[weightEntry, int]
}

// NewWeightsTable returns an empty weights table.
func NewWeightsTable() *WeightsTable {
	return &WeightsTable{m: NonLockingReadMap.New[weightEntry, int]()}
}

// Get returns the current weight for idx, or 0 if idx has never been
// assigned an example.
func (t *WeightsTable) Get(idx int) float64 {
	e := t.m.Get(idx)
	if e == nil {
		return 0
	}
	return (*e).Weight()
}

// Add applies delta (positive from the assigner, negative from the
// sampler re-scoring an example out of idx) to idx's running weight.
//
// If idx already has a cell, delta is folded in with a CAS loop directly
// on that cell — no trip through the map, so no race with whoever else
// reaches the same cell. If idx is new, Add creates a cell and inserts
// it; since NonLockingReadMap.Set cannot detect "someone else inserted
// this key first" and simply overwrites the slot, two goroutines racing
// to create the same index can end up with one entry's cell discarded.
// Add detects that by re-reading after its own insert: if the stored
// cell isn't the one it just created, its insert lost the race and it
// retries, landing on the addFloat64 path against whichever cell won.
func (t *WeightsTable) Add(idx int, delta float64) {
	for {
		if e := t.m.Get(idx); e != nil {
			addFloat64(e.cell, delta)
			return
		}

		cell := new(atomic.Uint64)
		cell.Store(math.Float64bits(delta))
		t.m.Set(&weightEntry{Index: idx, cell: cell})

		if e := t.m.Get(idx); e != nil && e.cell == cell {
			return
		}
		// Our insert was clobbered by a concurrent first-writer for the
		// same idx; loop around and fold delta into the surviving cell.
	}
}

// addFloat64 CAS-loops delta into *cell, retrying until no concurrent
// writer raced it between Load and CompareAndSwap.
func addFloat64(cell *atomic.Uint64, delta float64) {
	for {
		old := cell.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if cell.CompareAndSwap(old, next) {
			return
		}
	}
}

// Snapshot returns every stratum index that has ever been assigned a
// weight, in index order, including indices whose weight is now zero or
// negative (buildCumulativeIndex skips those). Used by the sampler to build a fresh cumulative index
// for each weighted-roulette draw.
func (t *WeightsTable) Snapshot() []weightEntry {
	all := t.m.GetAll()
	out := make([]weightEntry, 0, len(all))
	for _, e := range all {
		out = append(out, *e)
	}
	return out
}
