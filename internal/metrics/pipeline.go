package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsCleanedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "pipeline_records_cleaned_total",
		Namespace: AeolusNamespace,
		Help:      "Raw records that survived cleaning and standardization.",
	})

	RecordsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "pipeline_records_dropped_total",
		Namespace: AeolusNamespace,
		Help:      "Raw records dropped during cleaning, by reason.",
	}, []string{"reason"})

	DuplicateRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "pipeline_duplicate_records_total",
		Namespace: AeolusNamespace,
		Help:      "Exact-duplicate records removed during cleaning.",
	})

	PM25AliasFoldsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "pipeline_pm25_alias_folds_total",
		Namespace: AeolusNamespace,
		Help:      "Records whose pollutant spelling was folded onto pm25.",
	})
)
