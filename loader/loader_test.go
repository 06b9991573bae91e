package loader

import (
	"testing"
	"time"

	"github.com/launix-de/sparrow/model"
)

func mkSampled(feature float32) model.SampledExample {
	return model.SampledExample{Data: model.LabeledData{Features: []float32{feature}, Label: model.Positive}}
}

func TestGetNextBatchBlocksUntilFirstFill(t *testing.T) {
	const size = 4
	in := make(chan model.SampledExample, size)
	l := New(size, in)
	l.RunFiller()

	done := make(chan []model.SampledExample)
	go func() {
		done <- l.GetNextBatch(2)
	}()

	select {
	case <-done:
		t.Fatal("GetNextBatch returned before the loader was ever filled")
	case <-time.After(50 * time.Millisecond):
	}

	for i := 0; i < size; i++ {
		in <- mkSampled(float32(i))
	}

	select {
	case batch := <-done:
		if len(batch) != 2 {
			t.Fatalf("expected batch of 2, got %d", len(batch))
		}
	case <-time.After(time.Second):
		t.Fatal("GetNextBatch never unblocked after fill")
	}
}

func TestGetNextBatchWrapsCircularly(t *testing.T) {
	const size = 4
	in := make(chan model.SampledExample, size)
	l := New(size, in)
	l.RunFiller()
	for i := 0; i < size; i++ {
		in <- mkSampled(float32(i))
	}
	// wait for fill
	time.Sleep(50 * time.Millisecond)

	first := l.GetNextBatch(3)
	second := l.GetNextBatch(3)
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected batches of len 3, got %d and %d", len(first), len(second))
	}
	// second batch should wrap: started right after first's 3 items out of 4
}

func TestUpdateScoresIdempotentOnSecondCall(t *testing.T) {
	const size = 2
	in := make(chan model.SampledExample, size)
	l := New(size, in)
	l.RunFiller()
	in <- mkSampled(1.0)
	in <- mkSampled(2.0)
	time.Sleep(50 * time.Millisecond)
	l.GetNextBatch(1) // forces the swap so front is populated

	m := model.Model{}.WithTree(model.Tree{Nodes: []model.Node{
		{Prediction: 5, LeftChild: model.LeafSentinel, RightChild: model.LeafSentinel},
	}})

	l.UpdateScores(m)
	first := snapshotScores(l)
	l.UpdateScores(m)
	second := snapshotScores(l)

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("index %d: score changed on second UpdateScores call: %v -> %v", i, first[i], second[i])
		}
	}
}

func snapshotScores(l *Loader) []float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float32, len(l.front))
	for i, ex := range l.front {
		out[i] = ex.LastScore
	}
	return out
}

func TestGetESSUniformWeightsIsOne(t *testing.T) {
	const size = 4
	in := make(chan model.SampledExample, size)
	l := New(size, in)
	l.RunFiller()
	for i := 0; i < size; i++ {
		in <- mkSampled(float32(i))
	}
	time.Sleep(50 * time.Millisecond)
	l.GetNextBatch(1)

	uniform := func(label model.Label, score float32) float32 { return 1 }
	ess := l.GetESS(uniform)
	if ess < 0.999 || ess > 1.001 {
		t.Fatalf("expected ESS ~1.0 for uniform weights, got %v", ess)
	}
}

func TestGetESSSkewedWeights(t *testing.T) {
	// matches spec.md §8(f): weights [10,1,1,1] -> ESS = 169/(4*103) ~= 0.410
	const size = 4
	in := make(chan model.SampledExample, size)
	l := New(size, in)
	l.RunFiller()
	for i := 0; i < size; i++ {
		in <- mkSampled(float32(i))
	}
	time.Sleep(50 * time.Millisecond)
	l.GetNextBatch(1)

	weights := []float32{10, 1, 1, 1}
	idx := 0
	skewed := func(label model.Label, score float32) float32 {
		w := weights[idx%len(weights)]
		idx++
		return w
	}
	ess := l.GetESS(skewed)
	want := 0.410
	if diff := ess - want; diff < -0.01 || diff > 0.01 {
		t.Fatalf("expected ESS ~%v, got %v", want, ess)
	}
}
