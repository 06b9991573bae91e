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

// Package loader implements spec.md §4.4: a double-buffered in-memory
// sample of SampledExamples, refilled asynchronously from the sampler's
// output and exposed to the booster as fixed-size batches.
package loader

import (
	"math/rand"
	"sync"

	"github.com/launix-de/sparrow/internal/wtrace"
	"github.com/launix-de/sparrow/model"
)

// bufferState tracks whether a back buffer has been fully filled and
// shuffled, ready to become the front.
type bufferState int

const (
	notReady bufferState = iota
	ready
)

// Loader is the buffer loader of spec.md §4.4.
type Loader struct {
	size int

	mu   sync.Mutex
	cond *sync.Cond

	front     []model.SampledExample
	back      []model.SampledExample
	backFill  int
	backState bufferState

	cursor int // circular read position into front, for GetNextBatch

	in <-chan model.SampledExample
}

// New creates a Loader with capacity size, reading fill data from in (the
// SampledExamplesQueue).
func New(size int, in <-chan model.SampledExample) *Loader {
	l := &Loader{
		size: size,
		back: make([]model.SampledExample, size),
		in:   in,
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// RunFiller drains in into the back buffer until Size examples have
// accumulated, shuffles in place, and marks it ready. A full back buffer
// that hasn't yet been swapped in is left untouched — "a pending READY is
// overwritten only after get_next_batch consumes it" (§4.4).
func (l *Loader) RunFiller() {
	wtrace.Go("loader.filler", func() {
		for ex := range l.in {
			l.mu.Lock()
			for l.backState == ready {
				// Back buffer already full and not yet swapped in; block
				// until GetNextBatch clears it rather than overwrite it.
				l.cond.Wait()
			}
			l.back[l.backFill] = ex
			l.backFill++
			if l.backFill == l.size {
				rand.Shuffle(l.size, func(i, j int) {
					l.back[i], l.back[j] = l.back[j], l.back[i]
				})
				l.backState = ready
				l.cond.Broadcast()
			}
			l.mu.Unlock()
		}
	})
}

// GetNextBatch returns the next batchSize examples from the front buffer,
// treated as circular. If the back buffer is ready, it is atomically
// swapped in first (§4.4 get_next_batch). Before the first swap ever
// happens — the "transient empty sample" case of §7 — this blocks rather
// than returning an empty batch.
func (l *Loader) GetNextBatch(batchSize int) []model.SampledExample {
	l.mu.Lock()
	for len(l.front) == 0 && l.backState != ready {
		l.cond.Wait()
	}
	if l.backState == ready {
		l.front, l.back = l.back, l.front
		if len(l.back) != l.size {
			// The first swap hands back the initial, unallocated front.
			l.back = make([]model.SampledExample, l.size)
		}
		l.backFill = 0
		l.backState = notReady
		l.cursor = 0
		l.cond.Broadcast()
	}
	front := l.front
	n := len(front)
	cursor := l.cursor
	l.cursor = (l.cursor + batchSize) % n
	l.mu.Unlock()

	batch := make([]model.SampledExample, batchSize)
	for i := 0; i < batchSize; i++ {
		batch[i] = front[(cursor+i)%n]
	}
	return batch
}

// UpdateScores re-scores every example in the front buffer against m's
// newly appended trees (§4.4 update_scores). Re-running this twice for the
// same model is a no-op the second time, since LastTreeIndex already
// equals |model|.
func (l *Loader) UpdateScores(m model.Model) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.front {
		ex := &l.front[i]
		if ex.LastTreeIndex >= m.Len() {
			continue
		}
		ex.LastScore += m.ScoreRange(ex.LastTreeIndex, ex.Data.Features)
		ex.LastTreeIndex = m.Len()
	}
}

// GetESS returns the normalized Kish effective sample size over the front
// buffer: (Σw)² / (n·Σw²), using w = weightFunc(label, LastScore).
func (l *Loader) GetESS(weightFunc model.WeightFunc) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.front)
	if n == 0 {
		return 0
	}
	var sum, sumSq float64
	for _, ex := range l.front {
		w, _ := model.ClampWeight(weightFunc(ex.Data.Label, ex.LastScore))
		sum += float64(w)
		sumSq += float64(w) * float64(w)
	}
	if sumSq == 0 {
		return 0
	}
	return (sum * sum) / (float64(n) * sumSq)
}
