package portal

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	LoginAttempts *prometheus.CounterVec
	RosterSaves   *prometheus.CounterVec
	RosterReloads *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		RosterSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "roster_saves_total",
			Help:      "Admin roster saves by result.",
		}, []string{"result"}),
		RosterReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "roster_reloads_total",
			Help:      "Roster reloads from the repository by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.LoginAttempts, m.RosterSaves, m.RosterReloads)
	}
	return m
}
