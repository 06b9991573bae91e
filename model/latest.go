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
package model

import "sync/atomic"

// LatestModel is the "single-slot latest-value channel" spec.md §9 calls
// adequate for model handoff: readers always get a complete, immutable
// snapshot, never a partially-extended one, and a read never blocks on a
// writer (nor vice versa). Sparrow's open question about "last model"
// semantics across rapid publications is resolved here: intermediate
// publications may be dropped; only the latest is ever observable.
type LatestModel struct {
	p atomic.Pointer[Model]
}

// NewLatestModel returns a LatestModel seeded with the empty model.
func NewLatestModel() *LatestModel {
	lm := &LatestModel{}
	lm.Publish(Model{})
	return lm
}

// Publish makes m the new latest snapshot, visible to all subsequent Load
// calls. m must not be mutated afterwards — Model.WithTree already
// enforces this by always returning a fresh value.
func (lm *LatestModel) Publish(m Model) {
	lm.p.Store(&m)
}

// Load returns the latest published snapshot, never blocking. Before the
// first Publish this is the empty model rather than a nil dereference.
func (lm *LatestModel) Load() Model {
	if p := lm.p.Load(); p != nil {
		return *p
	}
	return Model{}
}
