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
package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Candidate is one weak rule (decision stump) the booster may adopt: it
// splits on a single feature against a threshold and predicts a fixed
// value on each side. spec.md §4.5 calls this "k.predict(features)".
type Candidate struct {
	SplitIndex     int     `json:"split_index"`
	SplitThreshold float32 `json:"split_threshold"`
	LeftPrediction float32 `json:"left"`
	RightPrediction float32 `json:"right"`
}

// Predict evaluates the stump: left branch when the feature is <= threshold.
func (c Candidate) Predict(features []float32) float32 {
	if c.SplitIndex >= len(features) {
		return 0
	}
	if features[c.SplitIndex] <= c.SplitThreshold {
		return c.LeftPrediction
	}
	return c.RightPrediction
}

// AsTree wraps a single Candidate as the three-node Tree (root split plus
// two leaves) adopted into a Model.
func (c Candidate) AsTree() Tree {
	// Encode the stump as a 3-node tree: root split, two leaves.
	return Tree{Nodes: []Node{
		{SplitIndex: c.SplitIndex, SplitThreshold: c.SplitThreshold, LeftChild: 1, RightChild: 2},
		{Prediction: c.LeftPrediction, LeftChild: LeafSentinel, RightChild: LeafSentinel},
		{Prediction: c.RightPrediction, LeftChild: LeafSentinel, RightChild: LeafSentinel},
	}}
}

// candidatePoolFile is the on-disk shape of a candidate pool definition —
// authored by hand, so it allows comments (JSONC via hujson).
type candidatePoolFile struct {
	Candidates []Candidate `json:"candidates"`
}

// LoadCandidatePool reads a weak-rule candidate pool from a JSONC file.
// The human-authored format (with comments) lets an operator annotate why
// a given split/threshold was chosen without needing a separate doc.
func LoadCandidatePool(path string) ([]Candidate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidate pool %s: %w", path, err)
	}
	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC in candidate pool %s: %w", path, err)
	}
	var pool candidatePoolFile
	if err := json.Unmarshal(standardized, &pool); err != nil {
		return nil, fmt.Errorf("invalid candidate pool %s: %w", path, err)
	}
	return pool.Candidates, nil
}
