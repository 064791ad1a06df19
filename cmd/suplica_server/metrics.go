package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suplica",
		Subsystem: "server",
		Name:      "logins_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	prayersCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "suplica",
		Subsystem: "server",
		Name:      "prayers_total",
		Help:      "Prayers recorded.",
	})

	messagesCount = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "suplica",
		Subsystem: "server",
		Name:      "prayer_room_messages_total",
		Help:      "Prayer room messages stored.",
	})
)
