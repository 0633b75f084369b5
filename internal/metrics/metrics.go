// Package metrics exposes the prometheus instrumentation worldtick.Context
// records each tick. Grounded on
// iamvalenciia-kick-game-stream/fight-club-go/internal/api/observability.go's
// tick-duration histogram and live-count gauges, generalized from its
// package-level promauto globals into a struct a Context constructs and
// owns: this core never uses package-level singletons (worldtick.Context
// doc), so every metric lives on a caller-owned prometheus.Registry instead
// of the default global one.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the full set of gauges/histograms one Context reports.
type Metrics struct {
	Registry *prometheus.Registry

	tickDuration  prometheus.Histogram
	npcCount      prometheus.Gauge
	objCount      prometheus.Gauge
	magicCount    prometheus.Gauge
	scriptQueue   prometheus.Gauge
	deathsTotal   prometheus.Counter
	respawnsTotal prometheus.Counter
}

// New constructs a Metrics bound to a fresh registry, ready to be scraped
// via promhttp.HandlerFor(m.Registry, ...) from whichever process embeds
// this core.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "world_tick_duration_seconds",
			Help:    "Time spent running one world tick (all phases).",
			Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
		}),
		npcCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "world_npc_count",
			Help: "Live NPC/player characters this tick.",
		}),
		objCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "world_obj_count",
			Help: "Live interactive objects this tick.",
		}),
		magicCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "world_magic_sprite_count",
			Help: "In-flight magic sprites this tick.",
		}),
		scriptQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "world_script_queue_depth",
			Help: "Scripts queued for serial drain at end of tick.",
		}),
		deathsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "world_character_deaths_total",
			Help: "Total character deaths processed.",
		}),
		respawnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "world_character_respawns_total",
			Help: "Total character respawns processed.",
		}),
	}
	reg.MustRegister(m.tickDuration, m.npcCount, m.objCount, m.magicCount, m.scriptQueue, m.deathsTotal, m.respawnsTotal)
	return m
}

// RecordTick observes a completed tick's wall-clock duration.
func (m *Metrics) RecordTick(d time.Duration) { m.tickDuration.Observe(d.Seconds()) }

// SetEntityCounts updates the live-count gauges for the tick just completed.
func (m *Metrics) SetEntityCounts(npcs, objs, magics, scriptQueue int) {
	m.npcCount.Set(float64(npcs))
	m.objCount.Set(float64(objs))
	m.magicCount.Set(float64(magics))
	m.scriptQueue.Set(float64(scriptQueue))
}

// IncDeaths increments the death counter.
func (m *Metrics) IncDeaths() { m.deathsTotal.Inc() }

// IncRespawns increments the respawn counter.
func (m *Metrics) IncRespawns() { m.respawnsTotal.Inc() }
