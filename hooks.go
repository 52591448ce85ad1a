package staymap

import (
	"slices"
	"sync"

	"github.com/agentstation/staymap/pkg/reconciler"
	"github.com/agentstation/staymap/pkg/snapshot"
)

// Hook function types for cycle events
type (
	// CycleCompleteHook is called with the snapshot of every finished cycle
	CycleCompleteHook func(snap *snapshot.Snapshot)

	// AnomalyHook is called once per data inconsistency found in a cycle
	AnomalyHook func(anomaly reconciler.Anomaly)

	// SyncedHook is called after a sync has written the store
	SyncedHook func(result *SyncResult)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnCycleComplete(fn CycleCompleteHook)
	OnAnomaly(fn AnomalyHook)
	OnSynced(fn SyncedHook)
}

// hooks manages event callbacks for cycles and syncs
type hooks struct {
	mu              sync.RWMutex
	onCycleComplete []CycleCompleteHook
	onAnomaly       []AnomalyHook
	onSynced        []SyncedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnCycleComplete registers a callback for finished cycles
func (h *hooks) OnCycleComplete(fn CycleCompleteHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCycleComplete = append(h.onCycleComplete, fn)
}

// OnAnomaly registers a callback for data inconsistencies
func (h *hooks) OnAnomaly(fn AnomalyHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAnomaly = append(h.onAnomaly, fn)
}

// OnSynced registers a callback for completed syncs
func (h *hooks) OnSynced(fn SyncedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSynced = append(h.onSynced, fn)
}

// triggerCycle fires the anomaly hooks, then the cycle hooks. Hooks run
// outside the lock, so they may register further hooks.
func (h *hooks) triggerCycle(snap *snapshot.Snapshot) {
	h.mu.RLock()
	onAnomaly := slices.Clone(h.onAnomaly)
	onCycleComplete := slices.Clone(h.onCycleComplete)
	h.mu.RUnlock()

	for _, a := range snap.Anomalies {
		for _, hook := range onAnomaly {
			hook(a)
		}
	}
	for _, hook := range onCycleComplete {
		hook(snap)
	}
}

// triggerSynced fires the sync hooks
func (h *hooks) triggerSynced(result *SyncResult) {
	h.mu.RLock()
	onSynced := slices.Clone(h.onSynced)
	h.mu.RUnlock()

	for _, hook := range onSynced {
		hook(result)
	}
}
