// Package routes
package routes

import (
	"net/http"

	"github.com/ntousis/aeolus-api/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewMux(app *App) http.Handler {
	mux := http.NewServeMux()

	// health check
	mux.HandleFunc("/healthz", app.healthHandler)

	// metrics
	mux.Handle("/metrics", promhttp.Handler())

	// AQI prediction
	mux.HandleFunc("/predict", app.predictHandler)

	// site registry
	mux.HandleFunc("/sites", app.sitesHandler)

	// stored readings
	mux.HandleFunc("/readings/latest", app.latestHandler)
	mux.HandleFunc("/readings/aggregate", app.aggregateHandler)

	return utils.WithCORS(app.withAuth(mux))
}
