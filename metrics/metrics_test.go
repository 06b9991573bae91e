package metrics

import (
	"math"
	"testing"

	"github.com/launix-de/sparrow/model"
)

func assertClose(t *testing.T, got, want, tol float64, ctx string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v (tol %v)", ctx, got, want, tol)
	}
}

// TestAdaBoostLossWorkedExample matches spec.md §8(a).
func TestAdaBoostLossWorkedExample(t *testing.T) {
	points := []ScoredPoint{
		{Score: 1.0, Label: model.Positive},
		{Score: 0.0, Label: model.Positive},
		{Score: -1.0, Label: model.Negative},
	}
	assertClose(t, AdaBoostLoss(points), 0.5786, 0.001, "AdaBoostLoss")
}

// TestErrorRateWorkedExample matches spec.md §8(b).
func TestErrorRateWorkedExample(t *testing.T) {
	points := []ScoredPoint{
		{Score: 1.0, Label: model.Positive},
		{Score: 0.0, Label: model.Positive},
		{Score: -1.0, Label: model.Negative},
	}
	assertClose(t, ErrorRate(points), 1.0/3.0, 0.001, "ErrorRate")
}

// TestAUROCWorkedExample matches spec.md §8(c).
func TestAUROCWorkedExample(t *testing.T) {
	points := []ScoredPoint{
		{Score: 2.0, Label: model.Positive},
		{Score: 1.0, Label: model.Positive},
		{Score: 0.5, Label: model.Negative},
		{Score: 0.0, Label: model.Negative},
	}
	assertClose(t, AUROC(points, true), 1.0, 0.001, "AUROC ordered")
}

// TestAUROCOrderedMatchesUnordered checks spec.md §8's round-trip property:
// get_auc(sort(points), ordered=false) == get_auc(points, ordered=true).
func TestAUROCOrderedMatchesUnordered(t *testing.T) {
	shuffled := []ScoredPoint{
		{Score: 0.5, Label: model.Negative},
		{Score: 2.0, Label: model.Positive},
		{Score: 0.0, Label: model.Negative},
		{Score: 1.0, Label: model.Positive},
	}
	sorted := sortDescending(shuffled)

	gotUnordered := AUROC(shuffled, false)
	gotOrdered := AUROC(sorted, true)
	assertClose(t, gotUnordered, gotOrdered, 1e-9, "AUROC ordered vs unordered")
}

func TestAUROCPerfectSeparationIsOne(t *testing.T) {
	points := []ScoredPoint{
		{Score: 3, Label: model.Positive},
		{Score: 2, Label: model.Positive},
		{Score: 1, Label: model.Negative},
		{Score: 0, Label: model.Negative},
	}
	assertClose(t, AUROC(points, true), 1.0, 1e-9, "perfect separation AUROC")
}

func TestAUROCRandomGuessIsHalf(t *testing.T) {
	points := []ScoredPoint{
		{Score: 1, Label: model.Positive},
		{Score: 1, Label: model.Negative},
		{Score: 0, Label: model.Positive},
		{Score: 0, Label: model.Negative},
	}
	assertClose(t, AUROC(points, true), 0.5, 1e-9, "random-guess AUROC")
}

func TestAUPRCPerfectSeparationIsOne(t *testing.T) {
	points := []ScoredPoint{
		{Score: 3, Label: model.Positive},
		{Score: 2, Label: model.Positive},
		{Score: 1, Label: model.Negative},
		{Score: 0, Label: model.Negative},
	}
	assertClose(t, AUPRC(points, true), 1.0, 1e-9, "perfect separation AUPRC")
}

func TestEmptyInputsReturnZero(t *testing.T) {
	if got := AdaBoostLoss(nil); got != 0 {
		t.Errorf("AdaBoostLoss(nil) = %v, want 0", got)
	}
	if got := ErrorRate(nil); got != 0 {
		t.Errorf("ErrorRate(nil) = %v, want 0", got)
	}
	if got := AUROC(nil, true); got != 0 {
		t.Errorf("AUROC(nil) = %v, want 0", got)
	}
}
