package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ntousis/aeolus-api/internal/aqi"
	"github.com/ntousis/aeolus-api/internal/features"
	"github.com/ntousis/aeolus-api/internal/metrics"
	"github.com/ntousis/aeolus-api/pkg/types"
	"github.com/ntousis/aeolus-api/pkg/utils"
)

type PredictRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Timestamp string   `json:"timestamp,omitempty"`

	// Raw concentrations keyed by pollutant, with per-pollutant units.
	// Units default to the canonical unit of each pollutant when absent.
	Pollutants map[string]*float64 `json:"pollutants"`
	Units      map[string]string   `json:"units,omitempty"`
}

type PredictResponse struct {
	AqiPred          *float64       `json:"aqi_pred"`
	AqiCategoryPred  *string        `json:"aqi_category_pred"`
	AqiExact         *float64       `json:"aqi_exact"`
	AqiCategoryExact *string        `json:"aqi_category_exact"`
	UsedModel        bool           `json:"used_model"`
	UsedExact        bool           `json:"used_exact"`
	ModelInfo        utils.Body     `json:"model_info"`
	InputSummary     map[string]any `json:"input_summary"`
}

func (app *App) predictHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		metrics.HttpRequestLatencySeconds.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodPost {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	if req.Latitude == nil || req.Longitude == nil {
		utils.ReplyBadRequest(w, "missing latitude or longitude")
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 {
		utils.ReplyBadRequest(w, "latitude out of range")
		return
	}
	if *req.Longitude < -180 || *req.Longitude > 180 {
		utils.ReplyBadRequest(w, "longitude out of range")
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			utils.ReplyBadRequest(w, "invalid timestamp")
			return
		}
		ts = parsed.UTC()
	}

	// Standardize whatever the caller sent. Unknown pollutants and failed
	// conversions are reported in the summary rather than rejected.
	standardized := make(map[types.Pollutant]*float64)
	stdValues := make(map[types.Pollutant]float64)
	conversionFailed := []string{}
	ignored := []string{}

	for code, value := range req.Pollutants {
		p, err := types.ToPollutant(code)
		if err != nil {
			ignored = append(ignored, code)
			continue
		}
		if value == nil {
			continue
		}

		// an omitted unit means the value is already canonical
		unit := ""
		if req.Units != nil {
			unit = req.Units[code]
		}
		if unit == "" {
			unit, _ = aqi.CanonicalUnit(p)
		}

		std, _, ok := aqi.Convert(p, *value, unit)
		if !ok {
			conversionFailed = append(conversionFailed, code)
			continue
		}

		v := std
		standardized[p] = &v
		stdValues[p] = std
	}

	resp := PredictResponse{
		InputSummary: map[string]any{
			"provided":          len(stdValues),
			"conversion_failed": conversionFailed,
			"ignored":           ignored,
		},
	}

	inputPollutants := types.AllPollutants
	if app.Artifacts != nil {
		inputPollutants = app.Artifacts.InputPollutants()
	}

	// Exact AQI when the full trained input set standardized cleanly and
	// every sub-index is defined.
	complete := true
	for _, p := range inputPollutants {
		if _, ok := stdValues[p]; !ok {
			complete = false
			break
		}
	}

	if complete {
		if exact, ok := aqi.ComputeAQI(stdValues, nil); ok {
			category := aqi.Category(exact)
			resp.AqiExact = &exact
			resp.AqiCategoryExact = &category
			resp.UsedExact = true
		}
	}

	if !resp.UsedExact && app.Inference != nil {
		cols := []string{}
		if app.Artifacts != nil {
			cols = app.Artifacts.Features()
		}
		vector := features.BuildVector(*req.Latitude, *req.Longitude, ts, standardized, cols)

		pred, err := app.Inference.Predict(r.Context(), vector)
		if err != nil {
			app.logger.Error().Err(err).Msg("model prediction failed")
		} else {
			category := aqi.Category(pred)
			resp.AqiPred = &pred
			resp.AqiCategoryPred = &category
			resp.UsedModel = true
		}
	}

	if !resp.UsedExact && !resp.UsedModel {
		metrics.PredictionsTotal.WithLabelValues("unavailable").Inc()
		utils.ReplyBadRequest(w, "not enough data for an exact answer and no model available")
		return
	}

	if resp.UsedExact {
		metrics.PredictionsTotal.WithLabelValues("exact").Inc()
	} else {
		metrics.PredictionsTotal.WithLabelValues("model").Inc()
	}

	resp.ModelInfo = utils.Body{"name": ""}
	if app.Artifacts != nil {
		resp.ModelInfo["name"] = app.Artifacts.Meta.BestModelName
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": resp,
	})
}
