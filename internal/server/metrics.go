package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var chatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusbot_chat_turns_total",
	Help: "Chat turns answered, by transport and outcome.",
}, []string{"transport", "outcome"})

func observeTurn(transport string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	chatTurns.WithLabelValues(transport, outcome).Inc()
}
