package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ntousis/aeolus-api/pkg/types"
)

func TestLoadArtifacts(t *testing.T) {
	dir := t.TempDir()

	colsPath := filepath.Join(dir, "feature_cols.json")
	if err := os.WriteFile(colsPath, []byte(`["pm25","hour","latitude"]`), 0o644); err != nil {
		t.Fatal(err)
	}

	metaPath := filepath.Join(dir, "model_meta.json")
	meta := `{"best_model_name":"random_forest","input_pollutants":["pm25","o3"],"features":["pm25"]}`
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Load(colsPath, metaPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := a.Features(); len(got) != 3 || got[0] != "pm25" {
		t.Errorf("Features() = %v", got)
	}
	if a.Meta.BestModelName != "random_forest" {
		t.Errorf("BestModelName = %q", a.Meta.BestModelName)
	}
	pollutants := a.InputPollutants()
	if len(pollutants) != 2 || pollutants[0] != types.PollutantPM25 || pollutants[1] != types.PollutantO3 {
		t.Errorf("InputPollutants() = %v", pollutants)
	}
}

func TestLoadArtifactsMissingFiles(t *testing.T) {
	dir := t.TempDir()

	a, err := Load(filepath.Join(dir, "nope.json"), filepath.Join(dir, "nope_meta.json"))
	if err != nil {
		t.Fatalf("missing files should not error: %v", err)
	}
	if len(a.Features()) != 0 {
		t.Errorf("Features() = %v, want empty", a.Features())
	}
	if got := a.InputPollutants(); len(got) != len(types.AllPollutants) {
		t.Errorf("InputPollutants() should default to all, got %v", got)
	}
}

func TestLoadArtifactsBadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feature_cols.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, ""); err == nil {
		t.Error("corrupt artifact should error")
	}
}
