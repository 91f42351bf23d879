package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsCollected counts items that validated and were persisted.
	ItemsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_items_collected_total",
		Help: "Items validated and upserted into the record store.",
	}, []string{"source"})
	// ItemsSkipped counts identifiers skipped without a network call.
	ItemsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_items_skipped_total",
		Help: "Identifiers skipped because the visitation log already holds them.",
	}, []string{"source"})
	// ValidationFailures counts items dropped by the schema validator.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_validation_failures_total",
		Help: "Items dropped because they violated the schema contract.",
	}, []string{"source"})
	// StorageFailures counts document-store write errors.
	StorageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_storage_errors_total",
		Help: "Document store write failures.",
	}, []string{"source"})
	// FetchFailures counts fetch/parse attempts the engine gave up on.
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_fetch_errors_total",
		Help: "Fetch or parse attempts that returned an error.",
	}, []string{"source"})
)
