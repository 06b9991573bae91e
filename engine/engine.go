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

package engine

import (
	"fmt"
	"sync"

	"github.com/dc0d/onexit"
	units "github.com/docker/go-units"
	"github.com/google/uuid"

	"github.com/launix-de/sparrow/boost"
	"github.com/launix-de/sparrow/diskpool"
	"github.com/launix-de/sparrow/loader"
	"github.com/launix-de/sparrow/model"
	"github.com/launix-de/sparrow/store"
	"github.com/launix-de/sparrow/stratum"
)

// Engine owns one run_training job: the disk pool, the stratified store,
// the buffer loader and the boosting driver, wired together exactly as
// spec.md §5 lays out the worker topology. Raw examples and the sampler's
// re-scored re-emissions share one UpdatedExamplesQueue, matching §9's
// "cyclic data flow" design note.
type Engine struct {
	RunID uuid.UUID

	Pool     *diskpool.Pool
	Registry *store.Registry
	Weights  *store.WeightsTable
	Latest   *model.LatestModel

	Assigner *store.Assigner
	Sampler  *store.Sampler
	Loader   *loader.Loader
	Driver   *boost.Driver

	updatedExamples chan model.ScoredExample
	sampledExamples chan model.SampledExample
	stop            chan struct{}
	stopOnce        sync.Once

	cfg Config
}

// New assembles an Engine from cfg without starting any worker. Call Run
// to start the pipeline.
func New(cfg Config) (*Engine, error) {
	backend := cfg.Backend
	if backend == nil {
		fb, err := diskpool.NewFileBackend(cfg.SlotFilePath, cfg.NumSlots, cfg.SlotBytes)
		if err != nil {
			return nil, fmt.Errorf("engine: opening slot file backend: %w", err)
		}
		if _, err := diskpool.WatchFileBackend(fb); err != nil {
			fmt.Println("engine: slot file watch unavailable:", err)
		}
		backend = fb
	}
	pool := diskpool.NewPool(backend, cfg.NumSlots)

	candidates := cfg.Candidates
	if len(candidates) == 0 && cfg.CandidatePoolPath != "" {
		loaded, err := model.LoadCandidatePool(cfg.CandidatePoolPath)
		if err != nil {
			return nil, fmt.Errorf("engine: loading candidate pool: %w", err)
		}
		candidates = loaded
	}

	latest := model.NewLatestModel()
	if cfg.CheckpointPath != "" {
		cp, err := model.LoadCheckpoint(cfg.CheckpointPath)
		if err != nil {
			return nil, fmt.Errorf("engine: loading checkpoint: %w", err)
		}
		latest.Publish(cp)
	}

	weights := store.NewWeightsTable()
	registry := store.NewRegistry(pool, stratum.GobCodec{}, cfg.NumExamplesPerSlot, cfg.QueueCapacity)

	updatedExamples := make(chan model.ScoredExample, cfg.QueueCapacity)
	sampledExamples := make(chan model.SampledExample, cfg.QueueCapacity)

	assigner := store.NewAssigner(registry, weights, cfg.weightFunc(), updatedExamples)
	sampler := store.NewSampler(registry, weights, cfg.weightFunc(), latest, updatedExamples, sampledExamples)
	buf := loader.New(cfg.Size, sampledExamples)

	var onAdopt func(model.Model)
	if cfg.CheckpointPath != "" {
		onAdopt = func(m model.Model) {
			if err := model.SaveCheckpoint(cfg.CheckpointPath, m); err != nil {
				fmt.Println("engine: checkpoint write failed:", err)
			}
		}
	}
	driver := boost.New(boost.Config{
		Candidates:      candidates,
		WeightFunc:      cfg.weightFunc(),
		Delta:           cfg.Delta,
		InitialGamma:    cfg.InitialGamma,
		TotalIterations: cfg.TotalIterations,
		LatestModel:     latest,
		Buffer:          buf,
		OnAdopt:         onAdopt,
	})

	runID := uuid.New()
	fmt.Printf("engine: run %s, slot pool sized %s (%d slots x %s)\n",
		runID, units.HumanSize(float64(cfg.NumSlots)*float64(cfg.SlotBytes)), cfg.NumSlots, units.HumanSize(float64(cfg.SlotBytes)))

	return &Engine{
		RunID:           runID,
		Pool:            pool,
		Registry:        registry,
		Weights:         weights,
		Latest:          latest,
		Assigner:        assigner,
		Sampler:         sampler,
		Loader:          buf,
		Driver:          driver,
		updatedExamples: updatedExamples,
		sampledExamples: sampledExamples,
		stop:            make(chan struct{}),
		cfg:             cfg,
	}, nil
}

// Ingest feeds one raw labeled example into the cycle, as an
// UpdatedExamplesQueue item with no prior score — the same entry point the
// sampler's re-emissions use (spec.md §9: "new examples and re-scored
// examples share a queue").
func (e *Engine) Ingest(ex model.LabeledData) {
	e.updatedExamples <- model.ScoredExample{Data: ex}
}

// Run starts every worker goroutine (assigner, sampler, buffer filler,
// booster) and registers an onexit shutdown hook that logs the pool's
// free/occupied slot counts — the same onexit.Register(...) pattern the
// teacher uses in storage/settings.go to close its trace file. Stop does
// not run the hook.
func (e *Engine) Run() {
	onexit.Register(func() {
		fmt.Printf("engine: run %s shutdown, pool free=%d occupied=%d\n", e.RunID, e.Pool.FreeCount(), e.Pool.OccupiedCount())
	})

	e.Assigner.Run()
	e.Sampler.Run(e.stop)
	e.Loader.RunFiller()
	e.Driver.Run(e.stop, e.cfg.BatchSize, e.cfg.SweepSize)
}

// Stop signals the sampler and booster to exit their loops. Idempotent.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// RunTraining is spec.md §6's run_training entry point: build an Engine,
// start it, feed examples until the channel closes, and block until the
// booster has adopted TotalIterations trees (or examples runs dry and the
// caller gives up waiting — callers that want a time-bounded run should
// close examples and then also call Stop).
func RunTraining(cfg Config, examples <-chan model.LabeledData) (model.Model, error) {
	eng, err := New(cfg)
	if err != nil {
		return model.Model{}, err
	}
	eng.Run()

	go func() {
		for ex := range examples {
			eng.Ingest(ex)
		}
	}()

	<-eng.Driver.Done()
	eng.Stop()
	return eng.Latest.Load(), nil
}
