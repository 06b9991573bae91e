package boost

import (
	"math"
	"testing"

	"github.com/launix-de/sparrow/loader"
	"github.com/launix-de/sparrow/model"
)

// TestBoundWorkedExample matches spec.md §8(e): δ=0.05, SumOfCSquared=100,
// SumOfC=50 → Bound ≈ 34.1.
func TestBoundWorkedExample(t *testing.T) {
	got := Bound(100, 50, 0.05)
	want := 34.1
	if diff := math.Abs(got - want); diff > 0.1 {
		t.Fatalf("Bound(100,50,0.05) = %v, want ~%v", got, want)
	}
}

func TestBoundFiresAdoption(t *testing.T) {
	bound := Bound(100, 50, 0.05)
	if !(50 > bound) {
		t.Fatalf("expected SumOfC=50 to exceed Bound=%v per §8(e)", bound)
	}
}

func buildDriver(t *testing.T, candidates []model.Candidate, delta, gamma float64) (*Driver, *loader.Loader, chan model.SampledExample) {
	t.Helper()
	in := make(chan model.SampledExample, 1024)
	buf := loader.New(16, in)
	buf.RunFiller()

	d := New(Config{
		Candidates:      candidates,
		WeightFunc:      model.AdaBoostWeight,
		Delta:           delta,
		InitialGamma:    gamma,
		TotalIterations: 100,
		LatestModel:     model.NewLatestModel(),
		Buffer:          buf,
	})
	return d, buf, in
}

// TestRunOnceAdoptsObviouslyGoodRule feeds a batch where one candidate
// perfectly predicts the label — its SumOfC should blow past the bound
// quickly and get adopted, resetting that candidate's stats.
func TestRunOnceAdoptsObviouslyGoodRule(t *testing.T) {
	perfect := model.Candidate{SplitIndex: 0, SplitThreshold: 0, LeftPrediction: -1, RightPrediction: 1}
	d, _, _ := buildDriver(t, []model.Candidate{perfect}, 0.05, 0.1)

	batch := make([]model.SampledExample, 0, 64)
	for i := 0; i < 32; i++ {
		batch = append(batch,
			model.SampledExample{Data: model.LabeledData{Features: []float32{1}, Label: model.Positive}},
			model.SampledExample{Data: model.LabeledData{Features: []float32{-1}, Label: model.Negative}},
		)
	}

	adopted := false
	for sweep := 0; sweep < 20 && !adopted; sweep++ {
		d.RunOnce(batch)
		if d.Iteration() > 0 {
			adopted = true
		}
	}
	if !adopted {
		t.Fatal("expected the perfectly-predictive candidate to be adopted within 20 sweeps")
	}
	if d.latestModel.Load().Len() != 1 {
		t.Fatalf("expected model with 1 tree after adoption, got %d", d.latestModel.Load().Len())
	}
}

// TestShrinkGammaOnUniformlyZeroSumOfC covers a candidate with no advantage
// at all: it always predicts 0, so its SumOfScore is 0 and its SumOfC holds
// only the -2γW penalty (-0.4 for this batch). The bound stays positive,
// nothing is adopted, and a completed sweep shrinks γ.
func TestShrinkGammaOnUniformlyZeroSumOfC(t *testing.T) {
	useless := model.Candidate{SplitIndex: 0, SplitThreshold: math.MaxFloat32, LeftPrediction: 0, RightPrediction: 0}
	d, _, _ := buildDriver(t, []model.Candidate{useless}, 0.05, 0.1)

	batch := []model.SampledExample{
		{Data: model.LabeledData{Features: []float32{1}, Label: model.Positive}},
		{Data: model.LabeledData{Features: []float32{1}, Label: model.Negative}},
	}
	d.RunOnce(batch)
	if d.Iteration() != 0 {
		t.Fatalf("expected no adoption for a zero-prediction candidate, got iteration=%d", d.Iteration())
	}

	gammaBefore := d.Gamma()
	d.NoteSweepComplete()
	// sumOfScore is 0 for a useless candidate (prediction always 0), so the
	// shrink computes gamma=0 and resets stats; it should not panic and
	// gamma should move (down to 0) rather than stay at the stale value.
	if d.Gamma() == gammaBefore && gammaBefore != 0 {
		t.Fatalf("expected gamma to shrink from %v, got unchanged", gammaBefore)
	}
}

func TestGobAndJSONTypesCompile(t *testing.T) {
	// Guard against accidental unexported-field regressions in Candidate:
	// AsTree must produce a usable 3-node stump.
	c := model.Candidate{SplitIndex: 0, SplitThreshold: 0.5, LeftPrediction: -1, RightPrediction: 1}
	tr := c.AsTree()
	if got := tr.Predict([]float32{0.1}); got != -1 {
		t.Errorf("expected left prediction -1, got %v", got)
	}
	if got := tr.Predict([]float32{0.9}); got != 1 {
		t.Errorf("expected right prediction 1, got %v", got)
	}
}
