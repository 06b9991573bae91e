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

// sparrow-train is a demo wiring entrypoint for engine.RunTraining. CLI
// flag parsing is explicitly out of scope (spec.md §1); this binary
// builds one Config by hand and trains against a synthetic stream, the
// same way the teacher's main.go hand-builds its storage before calling
// into its REPL.
package main

import (
	"fmt"

	"github.com/launix-de/sparrow/engine"
	"github.com/launix-de/sparrow/model"
)

func main() {
	fmt.Println(`sparrow Copyright (C) 2026  Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;`)

	cfg := engine.Config{
		Size:               4096,
		BatchSize:          256,
		SweepSize:          50000,
		NumExamplesPerSlot: 256,
		NumSlots:           4096,
		SlotBytes:          64 * 1024,
		QueueCapacity:      1024,
		TotalIterations:    50,
		Delta:              0.05,
		InitialGamma:       0.1,
		Candidates:         demoCandidates(),
		SlotFilePath:       "sparrow-slots.dat",
		CheckpointPath:     "sparrow-model.json",
	}

	examples := make(chan model.LabeledData, cfg.QueueCapacity)
	go generateDemoStream(examples)

	trained, err := engine.RunTraining(cfg, examples)
	if err != nil {
		panic(err)
	}
	fmt.Printf("sparrow-train: finished with %d trees\n", trained.Len())
}

// demoCandidates is a small fixed pool of axis-aligned stumps over a
// single feature, enough to demonstrate the full adopt/shrink loop.
func demoCandidates() []model.Candidate {
	var out []model.Candidate
	for t := -2.0; t <= 2.0; t += 0.5 {
		out = append(out, model.Candidate{
			SplitIndex:      0,
			SplitThreshold:  float32(t),
			LeftPrediction:  -1,
			RightPrediction: 1,
		})
	}
	return out
}

// generateDemoStream emits a synthetic, separable binary stream so the
// demo run has something to learn from. Real callers feed examples from
// their own ingestion path instead.
func generateDemoStream(out chan<- model.LabeledData) {
	defer close(out)
	x := float32(-5)
	for i := 0; i < 2_000_000; i++ {
		label := model.Negative
		if x > 0 {
			label = model.Positive
		}
		out <- model.LabeledData{Features: []float32{x}, Label: label}
		x += 0.01
		if x > 5 {
			x = -5
		}
	}
}
