package prayerroom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suplica",
		Subsystem: "prayer_room",
		Name:      "fetches_total",
		Help:      "Prayer room fetches by result (ok, error, skipped)",
	}, []string{"result"})

	sendCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suplica",
		Subsystem: "prayer_room",
		Name:      "sends_total",
		Help:      "Prayer room sends by result",
	}, []string{"result"})
)
