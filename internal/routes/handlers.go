package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ntousis/aeolus-api/internal/cache"
	"github.com/ntousis/aeolus-api/internal/db"
	"github.com/ntousis/aeolus-api/internal/metrics"
	"github.com/ntousis/aeolus-api/pkg/types"
	"github.com/ntousis/aeolus-api/pkg/utils"
)

func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	modelName := ""
	if app.Artifacts != nil {
		modelName = app.Artifacts.Meta.BestModelName
	}

	modelLoaded := false
	if app.Inference != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		modelLoaded = app.Inference.Health(ctx) == nil
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"ok":           true,
		"model_loaded": modelLoaded,
		"model_name":   modelName,
	})
}

func (app *App) sitesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		app.listSitesHandler(w, r)
	case http.MethodPost:
		app.registerSiteHandler(w, r)
	default:
		utils.ReplyMethodNotAllowed(w)
	}
}

func (app *App) listSitesHandler(w http.ResponseWriter, r *http.Request) {
	sites, err := app.Store.GetSites()
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": sites,
	})
}

func (app *App) registerSiteHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Location   string   `json:"location"`
		Country    string   `json:"country"`
		City       string   `json:"city"`
		Latitude   *float64 `json:"latitude"`
		Longitude  *float64 `json:"longitude"`
		SourceName string   `json:"source_name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	if req.Location == "" {
		utils.ReplyBadRequest(w, "missing location")
		return
	}

	site, err := app.Store.RegisterSite(types.Site{
		Location:   req.Location,
		Country:    req.Country,
		City:       req.City,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		SourceName: req.SourceName,
	})
	if err != nil {
		var dupErr *db.SiteAlreadyExistsError
		if errors.As(err, &dupErr) {
			utils.ReplyBadRequest(w, dupErr.Error())
			return
		}

		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusCreated, utils.Body{
		"data": site,
	})
}

func (app *App) latestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	siteID := r.URL.Query().Get("site_id")
	pollutantStr := r.URL.Query().Get("pollutant")
	if siteID == "" || pollutantStr == "" {
		utils.ReplyBadRequest(w, "missing query params")
		return
	}

	pollutant, err := types.ToPollutant(pollutantStr)
	if err != nil {
		utils.ReplyBadRequest(w, "invalid pollutant")
		return
	}

	year, month, day := time.Now().UTC().Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	key := cache.ReadingKey(siteID, pollutant, today)

	res, err := app.Cache.FetchLast(key, 5)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	// Less than 5, cache is stale
	if len(res) < 5 {
		res, err = app.Store.GetLastValues(siteID, pollutant, today.Format("2006-01-02"), 5)
		if err != nil {
			utils.ReplyInternalServerError(w, err.Error())
			return
		}
		for _, entry := range res {
			app.Cache.Store(key, entry)
		}
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": res,
	})
}

func (app *App) aggregateHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	defer func() {
		metrics.HttpRequestLatencySeconds.WithLabelValues("GET").Observe(time.Since(start).Seconds())
	}()

	if r.Method != http.MethodGet {
		utils.ReplyMethodNotAllowed(w)
		return
	}

	siteID := r.URL.Query().Get("site_id")
	pollutantStr := r.URL.Query().Get("pollutant")
	windowStr := r.URL.Query().Get("window")
	if siteID == "" || pollutantStr == "" || windowStr == "" {
		utils.ReplyBadRequest(w, "missing query params")
		return
	}

	pollutant, err := types.ToPollutant(pollutantStr)
	if err != nil {
		utils.ReplyBadRequest(w, "invalid pollutant")
		return
	}

	dur, err := time.ParseDuration(windowStr)
	if err != nil {
		utils.ReplyBadRequest(w, "invalid window")
		return
	}

	now := time.Now().UTC()
	cacheKey := cache.AggregateKey(siteID, pollutant, now)

	cached, err := app.Cache.FetchAggregate(r.Context(), cacheKey)
	if err == nil && cached != nil {
		var agg types.Aggregate
		if err = json.Unmarshal(cached, &agg); err == nil {
			utils.ReplyJSON(w, http.StatusOK, utils.Body{
				"data": agg,
			})
			return
		}
	}

	readings, err := app.Store.GetReadings(siteID, pollutant, now.Add(-dur), now)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	if len(readings) == 0 {
		utils.ReplyNotFound(w, "no readings found")
		return
	}

	sum, min, max := 0.0, readings[0].Value, readings[0].Value
	for _, e := range readings {
		sum += e.Value
		if e.Value < min {
			min = e.Value
		}
		if e.Value > max {
			max = e.Value
		}
	}

	agg := types.Aggregate{
		Avg:       sum / float64(len(readings)),
		Min:       min,
		Max:       max,
		Count:     len(readings),
		Timestamp: now,
	}

	_ = app.Cache.StoreAggregate(r.Context(), cacheKey, agg, time.Minute*5)

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": agg,
	})
}
