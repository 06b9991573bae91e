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

// Package engine wires diskpool, stratum, store, loader and boost into the
// runnable training job spec.md §6 calls run_training, plus the ambient
// setup (checkpointing, shutdown hooks) a standalone binary needs around
// it. There is no flag/config-file parsing layer here — CLI wiring is out
// of scope per spec.md §1; Config is built by the caller.
package engine

import (
	"github.com/launix-de/sparrow/diskpool"
	"github.com/launix-de/sparrow/model"
)

// Config mirrors the teacher's package-level SettingsT (storage/settings.go):
// one flat struct holding every item spec.md §6 enumerates as
// "Configuration", set once before run_training starts.
type Config struct {
	// Size is the buffer loader's capacity (spec.md §4.4 Size).
	Size int
	// BatchSize is how many examples RunOnce consumes per call.
	BatchSize int
	// SweepSize is how many examples constitute "a full sweep" for the
	// booster's γ-shrink trigger (spec.md §4.5).
	SweepSize int

	// NumExamplesPerSlot is each stratum's per-slot batch size (§4.1/§4.2).
	NumExamplesPerSlot int
	// NumSlots is the disk slot pool's fixed slot count (§4.1).
	NumSlots uint32
	// SlotBytes is each slot's fixed on-disk footprint; there is no
	// BytesPerExample setting. FileBackend LZ4-compresses each slot's
	// payload and zero-pads it to SlotBytes.
	SlotBytes int64
	// QueueCapacity bounds every InQueue/OutQueue channel (§5 SPSC queues).
	QueueCapacity int

	// TotalIterations is how many trees run_training adopts before
	// returning (§6).
	TotalIterations uint32
	// Delta is δ, the bound's confidence parameter (§4.5, §6).
	Delta float64
	// InitialGamma is the starting target advantage γ (§6).
	InitialGamma float64

	// WeightFunc is the pluggable GetWeight of §6; nil defaults to
	// model.AdaBoostWeight.
	WeightFunc model.WeightFunc
	// Candidates is the weak-rule candidate pool (§6). If empty and
	// CandidatePoolPath is set, the pool is loaded from that JSONC file.
	Candidates        []model.Candidate
	CandidatePoolPath string

	// SlotFilePath is the local flat-file backend's path (§6 Persisted
	// state), used when Backend is nil.
	SlotFilePath string
	// Backend overrides the default local FileBackend, e.g. diskpool.S3Backend.
	Backend diskpool.Backend

	// CheckpointPath is where the latest adopted model is atomically
	// written after every adoption. Empty disables checkpointing.
	CheckpointPath string
}

func (c Config) weightFunc() model.WeightFunc {
	if c.WeightFunc != nil {
		return c.WeightFunc
	}
	return model.AdaBoostWeight
}
