package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"sync"
	"time"
)

const (
	EventsPublished      = "EventsPublished"
	PublishFailures      = "PublishFailures"
	MessagesConsumed     = "MessagesConsumed"
	MessagesDeadLettered = "MessagesDeadLettered"
	SyncRequestsSent     = "SyncRequestsSent"
	SyncResponsesSent    = "SyncResponsesSent"
)

// Metrics lists the counters every service exposes, starting at zero.
var Metrics = []string{
	EventsPublished,
	PublishFailures,
	MessagesConsumed,
	MessagesDeadLettered,
	SyncRequestsSent,
	SyncResponsesSent,
}

// StatsProvider counts broker and sync activity.
type StatsProvider interface {
	Incr(name string)
}

// StatsUpdater serializes counter updates through a single goroutine and
// serves them as JSON on GET /debug/vars.
type StatsUpdater struct {
	vars     *expvar.Map
	counts   chan string
	done     chan struct{}
	stopOnce sync.Once
}

// NewStatsUpdater publishes the service counters under the expvar map name.
// expvar names are process global, so name must be unique per process.
func NewStatsUpdater(mux *http.ServeMux, name string) *StatsUpdater {
	su := &StatsUpdater{
		vars:   expvar.NewMap(name),
		counts: make(chan string, 512),
		done:   make(chan struct{}),
	}

	started := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(started).Milliseconds()
	}))
	for _, m := range Metrics {
		su.vars.Set(m, new(expvar.Int))
	}

	mux.HandleFunc("GET /debug/vars", su.serveVars)
	return su
}

func (su *StatsUpdater) serveVars(w http.ResponseWriter, r *http.Request) {
	snapshot := make(map[string]json.RawMessage)
	su.vars.Do(func(kv expvar.KeyValue) {
		snapshot[kv.Key] = json.RawMessage(kv.Value.String())
	})

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(snapshot)
}

// Incr bumps a counter. Names outside Metrics are created on first use.
// After Stop the update is dropped.
func (su *StatsUpdater) Incr(name string) {
	select {
	case su.counts <- name:
	case <-su.done:
	}
}

// Run starts the goroutine applying updates.
func (su *StatsUpdater) Run() {
	go func() {
		for {
			select {
			case name := <-su.counts:
				su.vars.Add(name, 1)
			case <-su.done:
				return
			}
		}
	}()
}

func (su *StatsUpdater) Stop() {
	su.stopOnce.Do(func() { close(su.done) })
}
