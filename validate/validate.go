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

// Package validate implements spec.md §6's run_validate: an optional
// worker that reads the latest model as it arrives, scans a serial test
// set once per arrival, and emits one score per configured metric
// function.
package validate

import (
	"context"
	"fmt"

	"github.com/launix-de/sparrow/internal/wtrace"
	"github.com/launix-de/sparrow/metrics"
	"github.com/launix-de/sparrow/model"
	"github.com/launix-de/sparrow/serial"
)

// EvalFunc names a metric computed over one evaluation's scored points.
type EvalFunc struct {
	Name string
	Run  func(points []metrics.ScoredPoint) float64
}

// Evaluation is one complete scan of the test set against one model.
type Evaluation struct {
	TreeCount uint32
	Scores    map[string]float64
}

// Config bundles run_validate's inputs.
type Config struct {
	Models    <-chan model.Model
	Storage   serial.SerialStorage
	EvalFuncs []EvalFunc
	Stream    *Stream // optional; nil disables the dashboard push
}

// Run is spec.md §6's run_validate. It starts the validation worker in its
// own goroutine and returns immediately; the worker exits once Models
// closes (the booster's shutdown marker, per §5's cancellation rule) or ctx
// is cancelled. Every evaluation is also printed, in the teacher's
// fmt.Println style.
func Run(ctx context.Context, cfg Config) {
	wtrace.Go("validate", func() {
		for {
			select {
			case m, ok := <-cfg.Models:
				if !ok {
					return
				}
				eval, err := evaluate(ctx, cfg.Storage, m, cfg.EvalFuncs)
				if err != nil {
					fmt.Println("validate: scan failed:", err)
					continue
				}
				fmt.Printf("validate: model with %d trees -> %v\n", eval.TreeCount, eval.Scores)
				if cfg.Stream != nil {
					cfg.Stream.Publish(eval)
				}
			case <-ctx.Done():
				return
			}
		}
	})
}

// evaluate scans storage once against m and runs every configured metric.
func evaluate(ctx context.Context, storage serial.SerialStorage, m model.Model, evalFuncs []EvalFunc) (Evaluation, error) {
	if err := storage.Rewind(ctx); err != nil {
		return Evaluation{}, err
	}

	var points []metrics.ScoredPoint
	for {
		ex, ok, err := storage.Next(ctx)
		if err != nil {
			return Evaluation{}, err
		}
		if !ok {
			break
		}
		score := m.ScoreRange(0, ex.Features)
		points = append(points, metrics.ScoredPoint{Score: score, Label: ex.Label})
	}

	scores := make(map[string]float64, len(evalFuncs))
	for _, f := range evalFuncs {
		scores[f.Name] = f.Run(points)
	}
	return Evaluation{TreeCount: m.Len(), Scores: scores}, nil
}

// DefaultEvalFuncs is the reference set matching spec.md §8(a)-(c).
func DefaultEvalFuncs() []EvalFunc {
	return []EvalFunc{
		{Name: "adaboost_loss", Run: metrics.AdaBoostLoss},
		{Name: "error_rate", Run: metrics.ErrorRate},
		{Name: "auroc", Run: func(points []metrics.ScoredPoint) float64 { return metrics.AUROC(points, false) }},
		{Name: "auprc", Run: func(points []metrics.ScoredPoint) float64 { return metrics.AUPRC(points, false) }},
	}
}
