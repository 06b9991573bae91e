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
	"github.com/google/btree"
)

// cumEntry marks the upper end of one stratum's slice of the [0, total)
// weighted-roulette line.
type cumEntry struct {
	upper float64
	index int
}

func lessCumEntry(a, b cumEntry) bool { return a.upper < b.upper }

// cumulativeIndex turns a WeightsTable snapshot into an order-statistics
// tree over cumulative weight, the same way the teacher's StorageIndex
// keeps a btree.BTreeG over its delta rows (storage/index.go). A draw is
// then an AscendGreaterOrEqual lookup — O(log strata) — instead of a
// linear scan over every bucket.
type cumulativeIndex struct {
	tree  *btree.BTreeG[cumEntry]
	total float64
}

func buildCumulativeIndex(entries []weightEntry) *cumulativeIndex {
	tree := btree.NewG[cumEntry](8, lessCumEntry)
	var running float64
	for _, e := range entries {
		w := e.Weight()
		if w <= 0 {
			continue
		}
		running += w
		tree.ReplaceOrInsert(cumEntry{upper: running, index: e.Index})
	}
	return &cumulativeIndex{tree: tree, total: running}
}

func (c *cumulativeIndex) empty() bool { return c.total <= 0 }

// draw returns the stratum index whose cumulative interval contains r.
// Callers must supply 0 <= r < c.total.
func (c *cumulativeIndex) draw(r float64) (int, bool) {
	var found cumEntry
	ok := false
	c.tree.AscendGreaterOrEqual(cumEntry{upper: r}, func(item cumEntry) bool {
		if item.upper <= r {
			// r sits exactly on this stratum's upper end, which belongs to
			// the next stratum's half-open interval.
			return true
		}
		found = item
		ok = true
		return false
	})
	if !ok {
		return 0, false
	}
	return found.index, true
}
