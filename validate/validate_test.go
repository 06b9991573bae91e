package validate

import (
	"context"
	"testing"
	"time"

	"github.com/launix-de/sparrow/model"
	"github.com/launix-de/sparrow/serial"
)

type memStorage struct {
	examples []model.LabeledData
	i        int
}

func (m *memStorage) Rewind(ctx context.Context) error { m.i = 0; return nil }
func (m *memStorage) Next(ctx context.Context) (model.LabeledData, bool, error) {
	if m.i >= len(m.examples) {
		return model.LabeledData{}, false, nil
	}
	ex := m.examples[m.i]
	m.i++
	return ex, true, nil
}
func (m *memStorage) Close() error { return nil }

var _ serial.SerialStorage = (*memStorage)(nil)

func TestRunEvaluatesEachArrivingModel(t *testing.T) {
	storage := &memStorage{examples: []model.LabeledData{
		{Features: []float32{1}, Label: model.Positive},
		{Features: []float32{-1}, Label: model.Negative},
	}}

	models := make(chan model.Model, 1)
	stream := NewStream()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	Run(ctx, Config{
		Models:    models,
		Storage:   storage,
		EvalFuncs: DefaultEvalFuncs(),
		Stream:    stream,
	})

	perfect := model.Tree{Nodes: []model.Node{
		{SplitIndex: 0, SplitThreshold: 0, LeftChild: 1, RightChild: 2},
		{Prediction: -1, LeftChild: model.LeafSentinel, RightChild: model.LeafSentinel},
		{Prediction: 1, LeftChild: model.LeafSentinel, RightChild: model.LeafSentinel},
	}}
	m := model.Model{}.WithTree(perfect)
	models <- m
	close(models)

	time.Sleep(100 * time.Millisecond)
}

func TestEvaluateComputesAllConfiguredMetrics(t *testing.T) {
	storage := &memStorage{examples: []model.LabeledData{
		{Features: []float32{1}, Label: model.Positive},
		{Features: []float32{0}, Label: model.Positive},
		{Features: []float32{-1}, Label: model.Negative},
	}}

	stump := model.Tree{Nodes: []model.Node{{Prediction: 0, LeftChild: model.LeafSentinel, RightChild: model.LeafSentinel}}}
	m := model.Model{}.WithTree(stump)

	eval, err := evaluate(context.Background(), storage, m, DefaultEvalFuncs())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, name := range []string{"adaboost_loss", "error_rate", "auroc", "auprc"} {
		if _, ok := eval.Scores[name]; !ok {
			t.Errorf("missing score for %q", name)
		}
	}
	if eval.TreeCount != 1 {
		t.Errorf("expected TreeCount=1, got %d", eval.TreeCount)
	}
}
