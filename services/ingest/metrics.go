package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	readingsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_readings_consumed_total",
		Help: "Raw readings pulled off the bus.",
	})

	readingsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_readings_stored_total",
		Help: "Readings normalized and persisted as measurements.",
	})

	readingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_readings_rejected_total",
		Help: "Readings dropped after a terminal failure, labelled by reason.",
	}, []string{"reason"})
)
