package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/travelwallet/travelwallet/internal/metrics"
)

// MetricsHandler serves an in-memory recorder in Prometheus text format.
// It is mounted on /metrics when METRICS_BACKEND=memory.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

var _ http.Handler = (*MetricsHandler)(nil)

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

type sample struct {
	labels string
	value  any
}

type family struct {
	name, kind, help string
	samples          []sample
}

func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	s := h.snapshotter.Snapshot()
	families := []family{
		{"travelwallet_tour_cache_lookups_total", "counter", "Tour cache lookups by result.", []sample{
			{`result="hit"`, s.TourCacheHits},
			{`result="miss"`, s.TourCacheMisses},
		}},
		{"travelwallet_tours_total", "counter", "Tour lifecycle events by action.", []sample{
			{`action="created"`, s.ToursCreated},
			{`action="updated"`, s.ToursUpdated},
			{`action="deleted"`, s.ToursDeleted},
		}},
		{"travelwallet_friends_total", "counter", "Friend list changes by action.", []sample{
			{`action="added"`, s.FriendsAdded},
			{`action="removed"`, s.FriendsRemoved},
		}},
		{"travelwallet_expenses_recorded_total", "counter", "Expenses settled into a tour ledger.", []sample{
			{"", s.ExpensesRecorded},
		}},
		{"travelwallet_ledger_conflicts_total", "counter", "Ledger writes rejected because the tour changed concurrently.", []sample{
			{"", s.LedgerConflicts},
		}},
		{"travelwallet_ledger_mutation_duration_seconds", "summary", "Latency of ledger read-modify-write operations.", []sample{
			{"_count", s.MutationDurationCount},
			{"_sum", float64(s.MutationDurationTotalNs) / 1e9},
		}},
		{"travelwallet_activity_events_published_total", "counter", "Activity feed events by outcome.", []sample{
			{`status="success"`, s.ActivityPublished},
			{`status="dropped"`, s.ActivityDropped},
		}},
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	for _, f := range families {
		writeFamily(w, f)
	}
}

func writeFamily(w io.Writer, f family) {
	_, _ = fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind)
	for _, s := range f.samples {
		switch {
		case s.labels == "":
			_, _ = fmt.Fprintf(w, "%s %v\n", f.name, s.value)
		case s.labels[0] == '_':
			// summary suffix such as _count or _sum
			_, _ = fmt.Fprintf(w, "%s%s %v\n", f.name, s.labels, s.value)
		default:
			_, _ = fmt.Fprintf(w, "%s{%s} %v\n", f.name, s.labels, s.value)
		}
	}
}
