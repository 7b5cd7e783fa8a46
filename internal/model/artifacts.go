// Package model loads the trained-model metadata shipped next to the
// serving artifact: the trained feature column list and the model meta
// document. Artifacts are loaded once at startup and read-only after.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ntousis/aeolus-api/pkg/types"
)

type Meta struct {
	BestModelName   string   `json:"best_model_name,omitempty"`
	InputPollutants []string `json:"input_pollutants,omitempty"`
	Features        []string `json:"features,omitempty"`
}

type Artifacts struct {
	FeatureCols []string
	Meta        Meta
}

// Load reads the feature column list and model meta from disk. A missing
// file is not an error: the artifact falls back to empty defaults and the
// caller serves exact-only answers.
func Load(featureColsPath, metaPath string) (*Artifacts, error) {
	a := &Artifacts{}

	if featureColsPath != "" {
		cols, err := loadJSON[[]string](featureColsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load feature columns: %w", err)
		}
		if cols != nil {
			a.FeatureCols = *cols
		}
	}

	if metaPath != "" {
		meta, err := loadJSON[Meta](metaPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load model meta: %w", err)
		}
		if meta != nil {
			a.Meta = *meta
		}
	}

	return a, nil
}

func loadJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Features returns the trained column list, preferring the dedicated
// feature_cols artifact over the meta document.
func (a *Artifacts) Features() []string {
	if len(a.FeatureCols) > 0 {
		return a.FeatureCols
	}
	return a.Meta.Features
}

// InputPollutants returns the pollutants the model was trained to take as
// input, defaulting to the full enumerated set.
func (a *Artifacts) InputPollutants() []types.Pollutant {
	if len(a.Meta.InputPollutants) == 0 {
		return types.AllPollutants
	}
	out := make([]types.Pollutant, 0, len(a.Meta.InputPollutants))
	for _, code := range a.Meta.InputPollutants {
		p, err := types.ToPollutant(code)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return types.AllPollutants
	}
	return out
}
