package serial

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/launix-de/sparrow/model"
)

func TestFileStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testset.dat")

	want := []model.LabeledData{
		{Features: []float32{1, 2, 3}, Label: model.Positive},
		{Features: []float32{-1, -2}, Label: model.Negative},
		{Features: nil, Label: model.Positive},
	}
	if err := WriteFileStorage(path, want); err != nil {
		t.Fatalf("WriteFileStorage: %v", err)
	}

	s := NewFileStorage(path)
	defer s.Close()

	ctx := context.Background()
	got, err := ReadAll(ctx, s)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d examples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Label != want[i].Label {
			t.Errorf("example %d: label %v, want %v", i, got[i].Label, want[i].Label)
		}
		if len(got[i].Features) != len(want[i].Features) {
			t.Errorf("example %d: %d features, want %d", i, len(got[i].Features), len(want[i].Features))
			continue
		}
		for j := range want[i].Features {
			if got[i].Features[j] != want[i].Features[j] {
				t.Errorf("example %d feature %d: %v, want %v", i, j, got[i].Features[j], want[i].Features[j])
			}
		}
	}
}

func TestFileStorageRewindRestartsCursor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testset.dat")
	if err := WriteFileStorage(path, []model.LabeledData{
		{Features: []float32{1}, Label: model.Positive},
		{Features: []float32{2}, Label: model.Negative},
	}); err != nil {
		t.Fatalf("WriteFileStorage: %v", err)
	}

	s := NewFileStorage(path)
	defer s.Close()
	ctx := context.Background()

	first, err := ReadAll(ctx, s)
	if err != nil || len(first) != 2 {
		t.Fatalf("first ReadAll: %v, %d examples", err, len(first))
	}
	second, err := ReadAll(ctx, s)
	if err != nil || len(second) != 2 {
		t.Fatalf("second ReadAll after rewind: %v, %d examples", err, len(second))
	}
}

func TestFileStorageMissingFileErrorsOnRewind(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "does-not-exist.dat"))
	if err := s.Rewind(context.Background()); err == nil {
		t.Fatal("expected an error rewinding a nonexistent file")
	}
}

func TestFileStorageNextBeforeRewindErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "testset.dat")
	os.WriteFile(path, nil, 0644)

	s := NewFileStorage(path)
	if _, _, err := s.Next(context.Background()); err == nil {
		t.Fatal("expected an error calling Next before Rewind")
	}
}
