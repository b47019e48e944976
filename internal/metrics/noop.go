package metrics

import "time"

type discard struct{}

// NewNoop returns a Recorder for components built without a metrics backend.
func NewNoop() Recorder { return discard{} }

func (discard) IncTourCacheHit()                              {}
func (discard) IncTourCacheMiss()                             {}
func (discard) IncTourCreated()                               {}
func (discard) IncTourUpdated()                               {}
func (discard) IncTourDeleted()                               {}
func (discard) IncFriendAdded()                               {}
func (discard) IncFriendRemoved()                             {}
func (discard) IncExpenseRecorded()                           {}
func (discard) IncLedgerConflict()                            {}
func (discard) ObserveMutationDuration(string, time.Duration) {}
func (discard) IncActivityPublished(string)                   {}
