// Package alerts reports command outcomes on stderr: sync summaries,
// degraded snapshots, failed rows.
package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/tablesync"
)

// Alert is one line of command feedback with optional detail lines.
type Alert struct {
	Level     Level
	Message   string
	Details   []string
	Timestamp time.Time
	Err       error
}

// New returns an alert stamped with the current time.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message, Timestamp: time.Now()}
}

func NewError(message string) *Alert   { return New(LevelError, message) }
func NewWarning(message string) *Alert { return New(LevelWarning, message) }
func NewInfo(message string) *Alert    { return New(LevelInfo, message) }
func NewSuccess(message string) *Alert { return New(LevelSuccess, message) }

// WithError attaches the cause, printed after the message.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails appends detail lines.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

func (a *Alert) String() string {
	if a.Err == nil {
		return a.Level.Icon() + " " + a.Message
	}
	return fmt.Sprintf("%s %s: %v", a.Level.Icon(), a.Message, a.Err)
}

// ForSnapshot warns when a snapshot was computed from incomplete data.
// It returns nil for a clean snapshot.
func ForSnapshot(snap *snapshot.Snapshot) *Alert {
	if snap == nil || (!snap.IsDegraded() && len(snap.Anomalies) == 0) {
		return nil
	}

	var parts []string
	if snap.Degraded > 0 {
		parts = append(parts, fmt.Sprintf("%d degraded", snap.Degraded))
	}
	if n := len(snap.Anomalies); n > 0 {
		parts = append(parts, fmt.Sprintf("%d anomalies", n))
	}
	for _, src := range snap.DegradedSources {
		parts = append(parts, fmt.Sprintf("%s partial", src))
	}

	alert := NewWarning("Snapshot " + snap.Date + ": " + strings.Join(parts, ", "))
	for _, id := range snap.DegradedUnits {
		alert.WithDetails("degraded unit " + id.String())
	}
	for _, a := range snap.Anomalies {
		if a.UnitID == "" {
			alert.WithDetails(fmt.Sprintf("%s: %s %s", a.Kind, a.Source, a.Detail))
			continue
		}
		alert.WithDetails(fmt.Sprintf("%s: unit %s %s", a.Kind, a.UnitID, a.Detail))
	}
	return alert
}

// ForSync summarizes a sync result.
func ForSync(result *staymap.SyncResult) *Alert {
	verb := "Synced"
	if result.DryRun {
		verb = "Planned"
	}
	message := fmt.Sprintf("%s %d writes in %s", verb, result.Writes(), result.Duration.Round(time.Millisecond))

	if !result.HasErrors() {
		return NewSuccess(message)
	}

	alert := NewError(message + " with row errors")
	for _, table := range []*tablesync.Result{result.Units, result.Categories} {
		if table == nil {
			continue
		}
		for _, err := range table.RowErrors {
			alert.WithDetails(err.Error())
		}
	}
	return alert
}
