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
	"math/rand"
	"time"

	"github.com/launix-de/sparrow/internal/wtrace"
	"github.com/launix-de/sparrow/model"
)

// emptyStoreBackoff is how long the sampler waits before retrying a draw
// when the weights table is momentarily empty (startup, or every stratum
// drained) — avoids a hot busy-loop without introducing a real blocking
// primitive the spec doesn't call for.
const emptyStoreBackoff = time.Millisecond

// Sampler implements spec.md §4.3.2: draws a stratum by weight, reads its
// OutQueue, re-scores against the latest model, and emits a rejection-
// corrected stream of SampledExamples via the grid rule.
type Sampler struct {
	registry    *Registry
	weights     *WeightsTable
	weightFunc  model.WeightFunc
	latestModel *model.LatestModel

	updatedExamples chan<- model.ScoredExample
	sampledExamples chan<- model.SampledExample

	// lastGrid is the per-stratum running accumulator of §4.3.2 step 2d —
	// it persists across draws of the same stratum, not reset each time.
	lastGrid map[int]float64

	rng *rand.Rand
}

// NewSampler builds a Sampler. updatedExamples is the UpdatedExamplesQueue
// (the sampler's own output, consumed by the Assigner); sampledExamples is
// the SampledExamplesQueue (consumed by the buffer loader).
func NewSampler(registry *Registry, weights *WeightsTable, weightFunc model.WeightFunc, latestModel *model.LatestModel, updatedExamples chan<- model.ScoredExample, sampledExamples chan<- model.SampledExample) *Sampler {
	return &Sampler{
		registry:        registry,
		weights:         weights,
		weightFunc:      weightFunc,
		latestModel:     latestModel,
		updatedExamples: updatedExamples,
		sampledExamples: sampledExamples,
		lastGrid:        make(map[int]float64),
		rng:             rand.New(rand.NewSource(1)),
	}
}

// Run drives the sampler's single thread (§5: "Sampler — 1") until stop is
// closed.
func (s *Sampler) Run(stop <-chan struct{}) {
	wtrace.Go("sampler", func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			s.step()
		}
	})
}

func (s *Sampler) step() {
	idx, ok := s.drawStratum()
	if !ok {
		time.Sleep(emptyStoreBackoff)
		return
	}
	strat, ok := s.registry.Get(idx)
	if !ok {
		// A weight was published for idx but its Stratum hasn't appeared
		// in the registry yet (assigner creates it first, then adds the
		// weight, so this should be momentary) — retry next iteration.
		return
	}

	var winner model.ScoredExample
	for {
		ex := <-strat.OutQueue
		m := s.latestModel.Load()

		oldWeight, _ := model.ClampWeight(s.weightFunc(ex.Data.Label, ex.LastScore))

		updated := ex
		updated.LastScore += m.ScoreRange(ex.LastTreeIndex, ex.Data.Features)
		updated.LastTreeIndex = m.Len()

		s.weights.Add(idx, -float64(oldWeight))
		s.updatedExamples <- updated

		newWeight, _ := model.ClampWeight(s.weightFunc(updated.Data.Label, updated.LastScore))
		s.lastGrid[idx] += float64(newWeight)

		if s.lastGrid[idx] >= model.GridSize(idx) {
			winner = updated
			break
		}
	}

	for s.lastGrid[idx] >= model.GridSize(idx) {
		s.sampledExamples <- model.SampledExample{
			Data:             winner.Data,
			SampledScore:     winner.LastScore,
			SampledTreeIndex: winner.LastTreeIndex,
			LastScore:        winner.LastScore,
			LastTreeIndex:    winner.LastTreeIndex,
		}
		s.lastGrid[idx] -= model.GridSize(idx)
	}
}

func (s *Sampler) drawStratum() (int, bool) {
	snapshot := s.weights.Snapshot()
	idx := buildCumulativeIndex(snapshot)
	if idx.empty() {
		return 0, false
	}
	r := s.rng.Float64() * idx.total
	return idx.draw(r)
}
