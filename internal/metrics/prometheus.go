package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "travelwallet"

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	tourCache         *prometheus.CounterVec
	tours             *prometheus.CounterVec
	friends           *prometheus.CounterVec
	expenses          prometheus.Counter
	conflicts         prometheus.Counter
	mutationDuration  *prometheus.HistogramVec
	activityPublished *prometheus.CounterVec
}

// NewPrometheus creates a recorder and registers its collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		tourCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tour_cache_lookups_total",
			Help:      "Tour cache lookups by result.",
		}, []string{"result"}),
		tours: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tours_total",
			Help:      "Tour lifecycle events by action.",
		}, []string{"action"}),
		friends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "friends_total",
			Help:      "Friend list changes by action.",
		}, []string{"action"}),
		expenses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses settled into a tour ledger.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflicts_total",
			Help:      "Ledger writes rejected because the tour changed concurrently.",
		}),
		mutationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_mutation_duration_seconds",
			Help:      "Latency of ledger read-modify-write operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		activityPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_published_total",
			Help:      "Activity feed events by outcome.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		r.tourCache,
		r.tours,
		r.friends,
		r.expenses,
		r.conflicts,
		r.mutationDuration,
		r.activityPublished,
	)
	return r
}

func (r *PrometheusRecorder) IncTourCacheHit()    { r.tourCache.WithLabelValues("hit").Inc() }
func (r *PrometheusRecorder) IncTourCacheMiss()   { r.tourCache.WithLabelValues("miss").Inc() }
func (r *PrometheusRecorder) IncTourCreated()     { r.tours.WithLabelValues("created").Inc() }
func (r *PrometheusRecorder) IncTourUpdated()     { r.tours.WithLabelValues("updated").Inc() }
func (r *PrometheusRecorder) IncTourDeleted()     { r.tours.WithLabelValues("deleted").Inc() }
func (r *PrometheusRecorder) IncFriendAdded()     { r.friends.WithLabelValues("added").Inc() }
func (r *PrometheusRecorder) IncFriendRemoved()   { r.friends.WithLabelValues("removed").Inc() }
func (r *PrometheusRecorder) IncExpenseRecorded() { r.expenses.Inc() }
func (r *PrometheusRecorder) IncLedgerConflict()  { r.conflicts.Inc() }

func (r *PrometheusRecorder) ObserveMutationDuration(op string, duration time.Duration) {
	r.mutationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) IncActivityPublished(status string) {
	r.activityPublished.WithLabelValues(status).Inc()
}
