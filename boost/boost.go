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

// Package boost implements spec.md §4.5: the online weak-rule-selection
// loop that accumulates running statistics per candidate and adopts a rule
// the moment a law-of-iterated-logarithm bound proves its advantage.
package boost

import (
	"fmt"
	"math"

	"github.com/launix-de/sparrow/internal/wtrace"
	"github.com/launix-de/sparrow/loader"
	"github.com/launix-de/sparrow/model"
)

// candidateStats holds the four running scalars of §4.5, reset whenever
// the candidate is adopted or γ shrinks.
type candidateStats struct {
	sumOfC         float64
	sumOfCSquared  float64
	sumOfScore     float64
	sumOfWeights   float64
}

func (s *candidateStats) reset() {
	*s = candidateStats{}
}

// Driver is the boosting driver of spec.md §4.5.
type Driver struct {
	candidates []model.Candidate
	stats      []candidateStats

	weightFunc      model.WeightFunc
	delta           float64 // δ, confidence parameter — no default per §9 open question
	gamma           float64 // γ, current target advantage

	totalIterations uint32
	iteration       uint32

	latestModel *model.LatestModel
	buf         *loader.Loader
	checkpoint  func(model.Model) // called after every adopted tree, e.g. to persist

	done chan struct{}
}

// Config bundles the knobs the driver needs at construction.
type Config struct {
	Candidates      []model.Candidate
	WeightFunc      model.WeightFunc
	Delta           float64
	InitialGamma    float64
	TotalIterations uint32
	LatestModel     *model.LatestModel
	Buffer          *loader.Loader
	OnAdopt         func(model.Model) // optional; called with the freshly published model
}

// New builds a Driver from cfg.
func New(cfg Config) *Driver {
	return &Driver{
		candidates:      cfg.Candidates,
		stats:           make([]candidateStats, len(cfg.Candidates)),
		weightFunc:      cfg.WeightFunc,
		delta:           cfg.Delta,
		gamma:           cfg.InitialGamma,
		totalIterations: cfg.TotalIterations,
		latestModel:     cfg.LatestModel,
		buf:             cfg.Buffer,
		checkpoint:      cfg.OnAdopt,
		done:            make(chan struct{}),
	}
}

// Done returns a channel closed once the booster goroutine started by Run
// exits — either because TotalIterations was reached or stop fired.
func (d *Driver) Done() <-chan struct{} { return d.done }

// Iteration reports the number of trees adopted so far.
func (d *Driver) Iteration() uint32 { return d.iteration }

// Gamma reports the driver's current target advantage.
func (d *Driver) Gamma() float64 { return d.gamma }

// Bound computes the law-of-iterated-logarithm upper confidence bound of
// §4.5 for one candidate's accumulated statistics.
func Bound(sumOfCSquared, sumOfC, delta float64) float64 {
	absC := math.Abs(sumOfC)
	if absC == 0 {
		// Avoid dividing by zero in the inner ratio; an infinite ratio
		// only pushes the bound higher, which is the correct direction
		// (no adoption when there is no accumulated advantage at all).
		absC = math.SmallestNonzeroFloat64
	}
	inner := math.Max(3*sumOfCSquared/(2*absC), math.E)
	return math.Sqrt(3 * sumOfCSquared * (2*math.Log(math.Log(inner)) + math.Log(2/delta)))
}

// RunOnce processes one batch of BatchSize examples: updates every
// candidate's running statistics, then checks for an adoption. Returns
// true if the driver has now reached TotalIterations.
func (d *Driver) RunOnce(batch []model.SampledExample) (done bool) {
	for i := range d.candidates {
		k := &d.candidates[i]
		st := &d.stats[i]
		for _, ex := range batch {
			y := ex.Data.Label
			w, _ := model.ClampWeight(d.weightFunc(y, ex.LastScore))
			yhat := k.Predict(ex.Data.Features)
			yf := float64(y)
			wf := float64(w)

			st.sumOfScore += yhat * yf * wf
			st.sumOfC += yhat*yf*wf - 2*d.gamma*wf
			cTerm := wf + 2*d.gamma*wf
			st.sumOfCSquared += cTerm * cTerm
			st.sumOfWeights += wf
		}
	}

	d.tryAdopt()
	return d.iteration >= d.totalIterations
}

// tryAdopt checks every candidate's bound and adopts the first one whose
// accumulated advantage exceeds it.
func (d *Driver) tryAdopt() bool {
	for i := range d.candidates {
		st := &d.stats[i]
		bound := Bound(st.sumOfCSquared, st.sumOfC, d.delta)
		if st.sumOfC <= bound {
			continue
		}

		tree := d.candidates[i].AsTree()
		next := d.latestModel.Load().WithTree(tree)
		d.latestModel.Publish(next)
		d.buf.UpdateScores(next)
		d.iteration++

		fmt.Printf("sparrow: adopted rule %d at iteration %d (SumOfC=%.4g > Bound=%.4g)\n", i, d.iteration, st.sumOfC, bound)

		for j := range d.stats {
			d.stats[j].reset()
		}
		if d.checkpoint != nil {
			d.checkpoint(next)
		}
		return true
	}
	return false
}

// Run drives the booster as its own thread (§5: "Booster — 1"): pulls
// batches from the buffer loader, feeds each through RunOnce, and tracks
// sweeps of sweepSize examples to trigger a γ shrink when a whole sweep
// adopts nothing. Run itself returns immediately; the booster goroutine
// exits (closing Done) once TotalIterations is reached or stop closes.
func (d *Driver) Run(stop <-chan struct{}, batchSize, sweepSize int) {
	wtrace.Go("booster", func() {
		defer close(d.done)
		examplesThisSweep := 0
		adoptedThisSweep := false
		for {
			select {
			case <-stop:
				return
			default:
			}

			batch := d.buf.GetNextBatch(batchSize)
			before := d.iteration
			doneTraining := d.RunOnce(batch)
			if d.iteration != before {
				adoptedThisSweep = true
			}

			examplesThisSweep += len(batch)
			if examplesThisSweep >= sweepSize {
				if !adoptedThisSweep {
					d.NoteSweepComplete()
				}
				examplesThisSweep = 0
				adoptedThisSweep = false
			}

			if doneTraining {
				return
			}
		}
	})
}

// NoteSweepComplete is called by Run once a full pass over the
// loader's sample completes without any adoption (§4.5: "If a full sweep
// through the current loader sample completes with no adoption, shrink
// γ"). Exposed separately from RunOnce because "a full sweep" spans many
// batches, which only the caller driving the loop can track.
func (d *Driver) NoteSweepComplete() {
	d.shrinkGamma()
}

// shrinkGamma implements §4.5's "γ ← 0.9 · max(SumOfScore)/(2 · SumOfWeights)":
// find the candidate with the largest accumulated SumOfScore and rescale γ
// against that same candidate's accumulated SumOfWeights.
func (d *Driver) shrinkGamma() {
	if len(d.stats) == 0 {
		return
	}
	best := 0
	for i := range d.stats {
		if d.stats[i].sumOfScore > d.stats[best].sumOfScore {
			best = i
		}
	}
	if d.stats[best].sumOfWeights == 0 {
		return
	}
	d.gamma = 0.9 * d.stats[best].sumOfScore / (2 * d.stats[best].sumOfWeights)
	fmt.Printf("sparrow: no rule adopted this sweep, shrinking gamma to %.6g\n", d.gamma)
	for i := range d.stats {
		d.stats[i].reset()
	}
}
