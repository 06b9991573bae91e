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

// Package metrics computes evaluation scores over (score,label) pairs.
// spec.md scopes metric computation out of the core except its input
// contract (§1); this package supplies that contract plus reference
// implementations, consumed by validate.Run.
package metrics

import (
	"math"
	"sort"

	"github.com/launix-de/sparrow/model"
)

// ScoredPoint is one evaluated example: the model's score and its true
// label.
type ScoredPoint struct {
	Score float32
	Label model.Label
}

// errorEpsilon is the "score·label ≤ ε" threshold spec.md §8(b) uses to
// call an example an error — guards against exact-zero float comparisons.
const errorEpsilon = 1e-8

// AdaBoostLoss computes the mean AdaBoost exponential loss
// exp(-label*score) over points. Matches spec.md §8(a).
func AdaBoostLoss(points []ScoredPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += math.Exp(-float64(p.Label) * float64(p.Score))
	}
	return sum / float64(len(points))
}

// ErrorRate computes the fraction of points where score*label <= ε
// (spec.md §8(b)).
func ErrorRate(points []ScoredPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	errors := 0
	for _, p := range points {
		if float64(p.Score)*float64(p.Label) <= errorEpsilon {
			errors++
		}
	}
	return float64(errors) / float64(len(points))
}

// sortDescending returns a copy of points sorted by Score descending.
func sortDescending(points []ScoredPoint) []ScoredPoint {
	sorted := make([]ScoredPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	return sorted
}

// rocCurve walks points (already sorted descending by score) and returns
// the tpr/fpr sequence at each distinct score threshold, per spec.md
// §8(c)'s worked example.
func rocCurve(sorted []ScoredPoint) (tpr, fpr []float64) {
	var totalPos, totalNeg int
	for _, p := range sorted {
		if p.Label == model.Positive {
			totalPos++
		} else {
			totalNeg++
		}
	}
	if totalPos == 0 || totalNeg == 0 {
		return nil, nil
	}

	tp, fp := 0, 0
	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j].Score == sorted[i].Score {
			if sorted[j].Label == model.Positive {
				tp++
			} else {
				fp++
			}
			j++
		}
		tpr = append(tpr, float64(tp)/float64(totalPos))
		fpr = append(fpr, float64(fp)/float64(totalNeg))
		i = j
	}
	return tpr, fpr
}

// trapezoidalArea integrates y over x via the trapezoid rule, prepending
// the origin (0,0) as the first segment — matching spec.md §8(c)'s
// "trapezoids + first-segment" phrasing.
func trapezoidalArea(x, y []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	area := 0.5 * x[0] * y[0] // first segment, from the origin
	for i := 1; i < len(x); i++ {
		area += 0.5 * (x[i] - x[i-1]) * (y[i] + y[i-1])
	}
	return area
}

// AUROC computes the area under the ROC curve. If ordered is false, points
// is sorted by score descending first; if true, points is assumed already
// sorted that way (spec.md §8 round-trip property: get_auc(sort(points),
// false) == get_auc(points, true)).
func AUROC(points []ScoredPoint, ordered bool) float64 {
	sorted := points
	if !ordered {
		sorted = sortDescending(points)
	}
	tpr, fpr := rocCurve(sorted)
	return trapezoidalArea(fpr, tpr)
}

// prCurve walks points (sorted descending by score) and returns the
// precision/recall sequence at each distinct score threshold.
func prCurve(sorted []ScoredPoint) (precision, recall []float64) {
	var totalPos int
	for _, p := range sorted {
		if p.Label == model.Positive {
			totalPos++
		}
	}
	if totalPos == 0 {
		return nil, nil
	}

	tp, fp := 0, 0
	i := 0
	for i < len(sorted) {
		j := i
		for j < len(sorted) && sorted[j].Score == sorted[i].Score {
			if sorted[j].Label == model.Positive {
				tp++
			} else {
				fp++
			}
			j++
		}
		precision = append(precision, float64(tp)/float64(tp+fp))
		recall = append(recall, float64(tp)/float64(totalPos))
		i = j
	}
	return precision, recall
}

// AUPRC computes the area under the precision-recall curve, with the same
// ordered/unordered contract as AUROC.
func AUPRC(points []ScoredPoint, ordered bool) float64 {
	sorted := points
	if !ordered {
		sorted = sortDescending(points)
	}
	precision, recall := prCurve(sorted)
	area := trapezoidalArea(recall, precision)
	if len(recall) > 0 {
		// The PR curve starts at (0, precision[0]), not at the origin, so the
		// first segment is a rectangle rather than trapezoidalArea's triangle.
		area += 0.5 * recall[0] * precision[0]
	}
	return area
}
