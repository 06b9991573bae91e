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
package stratum

import (
	"fmt"

	"github.com/launix-de/sparrow/diskpool"
	"github.com/launix-de/sparrow/internal/wtrace"
	"github.com/launix-de/sparrow/model"
)

// Stratum is one weight bucket's example queue pair plus the disk slots it
// owns (spec.md §3, §4.2). A slot id lives in exactly one stratum's
// slotIDs channel or the pool's free list, never both.
type Stratum struct {
	Index int

	InQueue  chan model.ScoredExample
	OutQueue chan model.ScoredExample

	pool               *diskpool.Pool
	codec              Codec
	numExamplesPerSlot int

	// slotIDs is the persisted-slot FIFO (spec's "SlotIndices"). Modeled as
	// a buffered channel rather than a slice+mutex: push/pop are exactly
	// the append/pop-oldest operations the spec calls for, and a channel
	// gives blocking-pop for free, matching the pool's own free-list idiom.
	slotIDs chan diskpool.SlotID

	ingestDone chan struct{}
}

// New creates a Stratum for weight bucket index. queueCapacity bounds
// InQueue/OutQueue (back-pressure per §5); the slot FIFO is sized to the
// full pool since, in the worst case, one stratum could own every slot.
func New(index int, pool *diskpool.Pool, codec Codec, numExamplesPerSlot int, queueCapacity int) *Stratum {
	return &Stratum{
		Index:              index,
		InQueue:            make(chan model.ScoredExample, queueCapacity),
		OutQueue:           make(chan model.ScoredExample, queueCapacity),
		pool:               pool,
		codec:              codec,
		numExamplesPerSlot: numExamplesPerSlot,
		slotIDs:            make(chan diskpool.SlotID, pool.NumSlots()),
		ingestDone:         make(chan struct{}),
	}
}

// SlotCount returns the number of persisted (disk-resident) slots this
// stratum currently owns — used by the §8 property-2 accounting check.
func (s *Stratum) SlotCount() int {
	return len(s.slotIDs)
}

// RunIngestWorker is the "enqueue worker" of §4.2, extended with the
// bypass path folded in as §9's design note requires ("fold both into the
// same consumer of InQueue" to avoid racing the partial staging buffer
// against a separate bypass writer). It owns the staging buffer
// exclusively, so no locking is needed around it.
func (s *Stratum) RunIngestWorker() {
	wtrace.Go(fmt.Sprintf("stratum[%d].ingest", s.Index), func() {
		defer close(s.ingestDone)
		staging := make([]model.ScoredExample, 0, s.numExamplesPerSlot)
		for ex := range s.InQueue {
			if len(s.slotIDs) == 0 && len(staging) == 0 && len(s.InQueue) < s.numExamplesPerSlot {
				// Bypass: no disk backlog, nothing already staged, and
				// not enough queued up behind this example to promise a
				// slot fills soon — shuttle straight through rather than
				// wait indefinitely (§4.2 bypass edge case). Once staging
				// has something in it, later examples finish that slot
				// instead of re-bypassing, so a burst still persists.
				s.OutQueue <- ex
				continue
			}

			staging = append(staging, ex)
			if len(staging) < s.numExamplesPerSlot {
				continue
			}

			payload, err := s.codec.EncodeBatch(staging)
			if err != nil {
				panic(fmt.Sprintf("stratum[%d]: encoding slot batch: %v", s.Index, err))
			}
			id := s.pool.ReserveFree()
			if err := s.pool.Write(id, payload); err != nil {
				// IO errors are fatal to the stratum (§4.2, §7).
				panic(fmt.Sprintf("stratum[%d]: writing slot: %v", s.Index, err))
			}
			s.slotIDs <- id
			staging = staging[:0]
		}
	})
}

// RunDequeueWorker is the "dequeue worker" of §4.2's non-bypass path: pop
// the oldest persisted slot, read+free it, and feed its examples into
// OutQueue one at a time.
func (s *Stratum) RunDequeueWorker() {
	wtrace.Go(fmt.Sprintf("stratum[%d].dequeue", s.Index), func() {
		for id := range s.slotIDs {
			payload, err := s.pool.ReadAndFree(id)
			if err != nil {
				panic(fmt.Sprintf("stratum[%d]: reading slot: %v", s.Index, err))
			}
			examples, err := s.codec.DecodeBatch(payload)
			if err != nil {
				panic(fmt.Sprintf("stratum[%d]: decoding slot: %v", s.Index, err))
			}
			for _, ex := range examples {
				s.OutQueue <- ex
			}
		}
	})
}

// Close signals both workers to exit once their input is drained. Not part
// of the steady-state training loop (spec.md §5: "timeouts are not part of
// the core contract"); neither the engine nor the tests call it. Waits for the ingest
// worker to finish before closing slotIDs, since the ingest worker is its
// only producer.
func (s *Stratum) Close() {
	close(s.InQueue)
	<-s.ingestDone
	close(s.slotIDs)
}
