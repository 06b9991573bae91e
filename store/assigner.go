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
	"fmt"
	"sync/atomic"

	"github.com/launix-de/sparrow/internal/wtrace"
	"github.com/launix-de/sparrow/model"
)

// clampWarnEvery controls how often a persistent-clamping warning is
// printed, so a misconfigured weight function doesn't flood stdout once
// per example (§7: "if persistent, the weight function is considered
// misconfigured — surfaced to caller").
const clampWarnEvery = 10000

// Assigner implements spec.md §4.3.1: it consumes re-scored examples,
// computes their weight and bucket, routes them into the right Stratum's
// InQueue, and publishes the weight delta.
type Assigner struct {
	registry   *Registry
	weights    *WeightsTable
	weightFunc model.WeightFunc
	in         <-chan model.ScoredExample

	clampedCount atomic.Int64
}

// NewAssigner builds an Assigner reading from in (the UpdatedExamplesQueue).
func NewAssigner(registry *Registry, weights *WeightsTable, weightFunc model.WeightFunc, in <-chan model.ScoredExample) *Assigner {
	return &Assigner{registry: registry, weights: weights, weightFunc: weightFunc, in: in}
}

// ClampedCount reports how many examples have had their weight clamped
// since startup — a caller-visible misconfiguration signal.
func (a *Assigner) ClampedCount() int64 {
	return a.clampedCount.Load()
}

// Run drives the assigner loop until in is closed.
func (a *Assigner) Run() {
	wtrace.Go("assigner", func() {
		for ex := range a.in {
			a.assign(ex)
		}
	})
}

func (a *Assigner) assign(ex model.ScoredExample) {
	raw := a.weightFunc(ex.Data.Label, ex.LastScore)
	w, wasClamped := model.ClampWeight(raw)
	if wasClamped {
		n := a.clampedCount.Add(1)
		if n%clampWarnEvery == 1 {
			fmt.Printf("sparrow: weight function produced a non-finite/non-positive value %d time(s); clamping to %g\n", n, w)
		}
	}

	idx := model.StratumIndex(w)
	s := a.registry.GetOrCreate(idx)
	s.InQueue <- ex
	a.weights.Add(idx, float64(w))
}
