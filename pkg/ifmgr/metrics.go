package ifmgr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	received = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dhcpkit",
		Subsystem: "ifmgr",
		Name:      "packets_received_total",
		Help:      "Packets successfully received and parsed, by protocol family.",
	}, []string{"family"})

	sent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dhcpkit",
		Subsystem: "ifmgr",
		Name:      "packets_sent_total",
		Help:      "Packets successfully handed to the packet filter, by protocol family.",
	}, []string{"family"})

	openFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dhcpkit",
		Subsystem: "ifmgr",
		Name:      "socket_open_failures_total",
		Help:      "Interfaces whose socket setup failed, by protocol family.",
	}, []string{"family"})

	parseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dhcpkit",
		Subsystem: "ifmgr",
		Name:      "receive_failures_total",
		Help:      "Receive attempts that failed to parse or read, by protocol family.",
	}, []string{"family"})
)
