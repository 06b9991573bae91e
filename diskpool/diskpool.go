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

// Package diskpool implements spec.md §4.1: a fixed-size, slot-partitioned
// disk file that hands out free slots, accepts writes, and reads+frees
// occupied slots. Every slot is in exactly one of {free, reserved-writing,
// occupied, reserved-reading} at any time (§4.1 invariant).
package diskpool

import (
	"fmt"

	"github.com/launix-de/NonLockingReadMap"
)

// SlotID identifies one fixed-size slot in the pool.
type SlotID uint32

// Backend persists one slot's payload. Implementations: a local flat file
// (FileBackend) or a remote object store (S3Backend) — the pool itself is
// backend-agnostic, matching the teacher's PersistenceEngine split between
// FileStorage and S3Storage.
type Backend interface {
	WriteSlot(id SlotID, payload []byte) error
	ReadSlot(id SlotID) ([]byte, error)
}

// Pool is the disk slot pool of spec.md §4.1.
type Pool struct {
	backend  Backend
	numSlots uint32

	// occupied is a lock-free bitmap readable without blocking writers —
	// used only for diagnostics/testable-property checks (§8 property 2),
	// never for correctness: the freeList channel is the source of truth
	// for which slots are available.
	occupied NonLockingReadMap.NonBlockingBitMap

	freeList chan SlotID
}

// NewPool creates a pool of numSlots slots, all initially free, backed by
// backend for the actual payload I/O.
func NewPool(backend Backend, numSlots uint32) *Pool {
	p := &Pool{
		backend:  backend,
		numSlots: numSlots,
		freeList: make(chan SlotID, numSlots),
	}
	for i := SlotID(0); i < SlotID(numSlots); i++ {
		p.freeList <- i
	}
	return p
}

// NumSlots returns the total slot count.
func (p *Pool) NumSlots() uint32 { return p.numSlots }

// ReserveFree atomically moves one FREE slot to the caller. Blocks if none
// are available (§4.1).
func (p *Pool) ReserveFree() SlotID {
	return <-p.freeList
}

// Write persists payload into slot id and marks it OCCUPIED. The caller
// must have reserved id via ReserveFree first and must not read id until
// Write returns — this is the "no slot is read before its write completes"
// ordering promised by §4.1, enforced here by the synchronous return.
func (p *Pool) Write(id SlotID, payload []byte) error {
	if err := p.backend.WriteSlot(id, payload); err != nil {
		// IO errors are fatal to the stratum that owns this slot (§4.2
		// failure semantics) — the caller (the stratum's enqueue worker)
		// is expected to treat a non-nil error as fatal and abort.
		return fmt.Errorf("diskpool: write slot %d: %w", id, err)
	}
	p.occupied.Set(uint32(id), true)
	return nil
}

// ReadAndFree reads slot id's payload, marks it FREE, and returns it to the
// free list (§4.1 read_and_free).
func (p *Pool) ReadAndFree(id SlotID) ([]byte, error) {
	payload, err := p.backend.ReadSlot(id)
	if err != nil {
		return nil, fmt.Errorf("diskpool: read slot %d: %w", id, err)
	}
	p.occupied.Set(uint32(id), false)
	p.freeList <- id
	return payload, nil
}

// FreeCount returns the number of slots currently on the free list —
// used by the §8 property-2 slot-accounting check alongside OccupiedCount.
func (p *Pool) FreeCount() int {
	return len(p.freeList)
}

// OccupiedCount returns the number of slots currently marked occupied.
// Read lock-free; may transiently disagree with FreeCount while a slot is
// reserved-but-not-yet-written or reserved-but-not-yet-freed, which is why
// §8 property 2 adds "slots reserved for in-flight I/O" to the sum.
func (p *Pool) OccupiedCount() int {
	n := 0
	for i := uint32(0); i < p.numSlots; i++ {
		if p.occupied.Get(i) {
			n++
		}
	}
	return n
}
