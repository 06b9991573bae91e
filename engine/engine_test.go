package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/launix-de/sparrow/diskpool"
	"github.com/launix-de/sparrow/model"
)

type memBackend struct {
	mu   sync.Mutex
	data map[diskpool.SlotID][]byte
}

func newMemBackend() *memBackend { return &memBackend{data: make(map[diskpool.SlotID][]byte)} }

func (b *memBackend) WriteSlot(id diskpool.SlotID, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(payload))
	copy(cp, payload)
	b.data[id] = cp
	return nil
}

func (b *memBackend) ReadSlot(id diskpool.SlotID) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data[id], nil
}

// TestRunTrainingAdoptsAPerfectRule feeds a tiny, perfectly-separable
// stream through the whole pipeline (assigner -> stratum -> sampler ->
// loader -> booster) and expects at least one tree to be adopted before
// TotalIterations caps the run.
func TestRunTrainingAdoptsAPerfectRule(t *testing.T) {
	perfect := model.Candidate{SplitIndex: 0, SplitThreshold: 0, LeftPrediction: -1, RightPrediction: 1}

	cfg := Config{
		Size:               8,
		BatchSize:          4,
		SweepSize:          64,
		NumExamplesPerSlot: 4,
		NumSlots:           16,
		SlotBytes:          256,
		QueueCapacity:      64,
		TotalIterations:    1,
		Delta:              0.05,
		InitialGamma:       0.1,
		Candidates:         []model.Candidate{perfect},
		Backend:            newMemBackend(),
	}

	examples := make(chan model.LabeledData, 256)
	go func() {
		defer close(examples)
		for i := 0; i < 200; i++ {
			examples <- model.LabeledData{Features: []float32{1}, Label: model.Positive}
			examples <- model.LabeledData{Features: []float32{-1}, Label: model.Negative}
		}
	}()

	done := make(chan model.Model, 1)
	go func() {
		m, err := RunTraining(cfg, examples)
		if err != nil {
			t.Error(err)
			return
		}
		done <- m
	}()

	select {
	case m := <-done:
		if m.Len() == 0 {
			t.Fatalf("expected at least one adopted tree, got %d", m.Len())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunTraining did not complete in time")
	}
}
