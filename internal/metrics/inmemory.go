package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	TourCacheHits           uint64
	TourCacheMisses         uint64
	ToursCreated            uint64
	ToursUpdated            uint64
	ToursDeleted            uint64
	FriendsAdded            uint64
	FriendsRemoved          uint64
	ExpensesRecorded        uint64
	LedgerConflicts         uint64
	MutationDurationCount   uint64
	MutationDurationTotalNs int64
	ActivityPublished       uint64
	ActivityDropped         uint64
}

// InMemoryRecorder stores metrics in memory for tests and single-node deployments.
type InMemoryRecorder struct {
	tourCacheHits           uint64
	tourCacheMisses         uint64
	toursCreated            uint64
	toursUpdated            uint64
	toursDeleted            uint64
	friendsAdded            uint64
	friendsRemoved          uint64
	expensesRecorded        uint64
	ledgerConflicts         uint64
	mutationDurationCount   uint64
	mutationDurationTotalNs int64
	activityPublished       uint64
	activityDropped         uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		TourCacheHits:           atomic.LoadUint64(&m.tourCacheHits),
		TourCacheMisses:         atomic.LoadUint64(&m.tourCacheMisses),
		ToursCreated:            atomic.LoadUint64(&m.toursCreated),
		ToursUpdated:            atomic.LoadUint64(&m.toursUpdated),
		ToursDeleted:            atomic.LoadUint64(&m.toursDeleted),
		FriendsAdded:            atomic.LoadUint64(&m.friendsAdded),
		FriendsRemoved:          atomic.LoadUint64(&m.friendsRemoved),
		ExpensesRecorded:        atomic.LoadUint64(&m.expensesRecorded),
		LedgerConflicts:         atomic.LoadUint64(&m.ledgerConflicts),
		MutationDurationCount:   atomic.LoadUint64(&m.mutationDurationCount),
		MutationDurationTotalNs: atomic.LoadInt64(&m.mutationDurationTotalNs),
		ActivityPublished:       atomic.LoadUint64(&m.activityPublished),
		ActivityDropped:         atomic.LoadUint64(&m.activityDropped),
	}
}

// IncTourCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncTourCacheHit() {
	atomic.AddUint64(&m.tourCacheHits, 1)
}

// IncTourCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncTourCacheMiss() {
	atomic.AddUint64(&m.tourCacheMisses, 1)
}

// IncTourCreated increments tour created counter.
func (m *InMemoryRecorder) IncTourCreated() {
	atomic.AddUint64(&m.toursCreated, 1)
}

// IncTourUpdated increments tour updated counter.
func (m *InMemoryRecorder) IncTourUpdated() {
	atomic.AddUint64(&m.toursUpdated, 1)
}

// IncTourDeleted increments tour deleted counter.
func (m *InMemoryRecorder) IncTourDeleted() {
	atomic.AddUint64(&m.toursDeleted, 1)
}

// IncFriendAdded increments friend added counter.
func (m *InMemoryRecorder) IncFriendAdded() {
	atomic.AddUint64(&m.friendsAdded, 1)
}

// IncFriendRemoved increments friend removed counter.
func (m *InMemoryRecorder) IncFriendRemoved() {
	atomic.AddUint64(&m.friendsRemoved, 1)
}

// IncExpenseRecorded increments expense counter.
func (m *InMemoryRecorder) IncExpenseRecorded() {
	atomic.AddUint64(&m.expensesRecorded, 1)
}

// IncLedgerConflict increments the optimistic concurrency conflict counter.
func (m *InMemoryRecorder) IncLedgerConflict() {
	atomic.AddUint64(&m.ledgerConflicts, 1)
}

// ObserveMutationDuration records ledger mutation duration. The op label is not kept.
func (m *InMemoryRecorder) ObserveMutationDuration(_ string, duration time.Duration) {
	atomic.AddUint64(&m.mutationDurationCount, 1)
	atomic.AddInt64(&m.mutationDurationTotalNs, duration.Nanoseconds())
}

// IncActivityPublished counts activity events by outcome.
func (m *InMemoryRecorder) IncActivityPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.activityPublished, 1)
		return
	}
	atomic.AddUint64(&m.activityDropped, 1)
}
