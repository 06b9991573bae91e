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

// Package model holds the data types shared by every Sparrow component:
// the labeled example, the two on-disk/in-memory example records, and the
// additive tree ensemble they are scored against.
package model

import "math"

// Label is always +1 or -1.
type Label int8

const (
	Positive Label = 1
	Negative Label = -1
)

// LabeledData is a fixed-length feature vector with a binary label.
type LabeledData struct {
	Features []float32
	Label    Label
}

// ScoredExample lives in the stratified store. LastScore/LastTreeIndex let
// the sampler extend a score incrementally instead of replaying the whole
// ensemble from tree 0 every time an example is re-evaluated.
type ScoredExample struct {
	Data          LabeledData
	LastScore     float32
	LastTreeIndex uint32
}

// SampledExample lives in the buffer loader. The Sampled* pair freezes the
// score/tree-index at the moment the example was drawn by the sampler (used
// for unbiasing and ESS); the Last* pair is advanced independently as the
// booster appends trees, so a batch can be rescored without re-sampling.
type SampledExample struct {
	Data             LabeledData
	SampledScore     float32
	SampledTreeIndex uint32
	LastScore        float32
	LastTreeIndex    uint32
}

// Node is one split (or leaf) of a Tree. Leaves use LeafSentinel children.
type Node struct {
	SplitIndex     int
	SplitThreshold float32
	Prediction     float32
	LeftChild      int32
	RightChild     int32
}

// LeafSentinel marks a Node as a leaf: it has no children.
const LeafSentinel int32 = -1

// Tree is an ordered list of Nodes; Node 0 is the root.
type Tree struct {
	Nodes []Node
}

// IsLeaf reports whether node i of t is a leaf.
func (t Tree) IsLeaf(i int) bool {
	return t.Nodes[i].LeftChild == LeafSentinel && t.Nodes[i].RightChild == LeafSentinel
}

// Predict walks the tree from the root and returns the leaf prediction.
func (t Tree) Predict(features []float32) float32 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for !t.IsLeaf(i) {
		n := t.Nodes[i]
		if int(n.SplitIndex) < len(features) && features[n.SplitIndex] <= n.SplitThreshold {
			i = int(n.LeftChild)
		} else {
			i = int(n.RightChild)
		}
	}
	return t.Nodes[i].Prediction
}

// Model is an ordered, append-only sequence of Trees. Model values are
// never mutated in place once published — §9 requires whole-snapshot
// handoff so readers never observe a partial extension.
type Model struct {
	Trees []Tree
}

// Len reports the number of adopted trees (ensemble size / "|Model|" in spec).
func (m Model) Len() uint32 {
	return uint32(len(m.Trees))
}

// ScoreRange adds the contribution of trees [from, len(m.Trees)) to
// `features`. This is what lets ScoredExample/SampledExample re-score
// incrementally: call once with the example's LastTreeIndex and add the
// result to LastScore.
func (m Model) ScoreRange(from uint32, features []float32) float32 {
	var sum float32
	for i := from; i < m.Len(); i++ {
		sum += m.Trees[i].Predict(features)
	}
	return sum
}

// WithTree returns a NEW Model with tree appended — the append-only
// extension is always a fresh snapshot, never an in-place mutation of an
// existing Model value, matching §9's "publish immutable snapshots" rule.
func (m Model) WithTree(t Tree) Model {
	next := make([]Tree, len(m.Trees)+1)
	copy(next, m.Trees)
	next[len(m.Trees)] = t
	return Model{Trees: next}
}

// WeightFunc maps (label, score) to a positive importance weight. The
// default reference implementation is AdaBoost's exponential weight;
// callers may plug in any other pluggable scalar map per spec.md §1.
type WeightFunc func(label Label, score float32) float32

// AdaBoostWeight is the default reference WeightFunc: exp(-label*score).
func AdaBoostWeight(label Label, score float32) float32 {
	w := float32(math.Exp(float64(-float32(label)) * float64(score)))
	if math.IsNaN(float64(w)) || math.IsInf(float64(w), 0) {
		return 0
	}
	return w
}

// MinWeight is the floor every weight is clamped to before bucketing.
// Per spec.md §7, NaN/non-finite weights are clamped rather than
// propagated into the stratum index computation.
const MinWeight = 1e-30

// ClampWeight clamps w into (0, +Inf); NaN and non-positive values map to
// MinWeight, +Inf maps to MaxFloat32. Callers should track how often
// clamping fires — persistent clamping means the weight function is
// misconfigured (§7) and should be surfaced, not silently absorbed forever.
func ClampWeight(w float32) (clamped float32, wasClamped bool) {
	if math.IsNaN(float64(w)) || w <= 0 {
		return MinWeight, true
	}
	if math.IsInf(float64(w), 1) {
		return math.MaxFloat32, true
	}
	return w, false
}

// StratumIndex computes ⌊log2 w⌋ for a positive weight — the bucket
// assignment rule of spec.md §3. Every bucket's members have a weight
// ratio bounded by 2, which the sampler's grid rule exploits. w must
// already be clamped to a positive, finite value via ClampWeight.
func StratumIndex(w float32) int {
	return int(math.Floor(math.Log2(float64(w))))
}

// GridSize returns 2^(idx+1), the per-draw emission threshold for stratum
// idx (spec.md §4.3.2 step 2e).
func GridSize(idx int) float64 {
	return math.Ldexp(1, idx+1)
}
