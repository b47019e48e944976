// Package metrics counts tour and ledger events. Recorder has a Prometheus
// implementation for production and an in-memory one for tests and the
// memory backend.
package metrics

import "time"

// Recorder receives events from the service, cache and activity layers.
type Recorder interface {
	IncTourCacheHit()
	IncTourCacheMiss()

	IncTourCreated()
	IncTourUpdated()
	IncTourDeleted()

	IncFriendAdded()
	IncFriendRemoved()
	IncExpenseRecorded()
	// IncLedgerConflict counts writes rejected by the version check.
	IncLedgerConflict()
	// ObserveMutationDuration times a read-settle-write cycle; op is
	// the operation name, e.g. "add_expense".
	ObserveMutationDuration(op string, duration time.Duration)

	// IncActivityPublished takes "success" or "dropped".
	IncActivityPublished(status string)
}

// Snapshotter is implemented by recorders that can report their counters.
type Snapshotter interface {
	Snapshot() Snapshot
}
