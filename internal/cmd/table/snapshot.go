package table

import (
	"strconv"
	"strings"

	"github.com/agentstation/staymap/internal/cmd/emoji"
	"github.com/agentstation/staymap/pkg/overrides"
	"github.com/agentstation/staymap/pkg/snapshot"
	"github.com/agentstation/staymap/pkg/tablesync"
	"github.com/agentstation/staymap/pkg/units"
)

// Summary converts a snapshot's portfolio totals to a key-value table.
func Summary(snap *snapshot.Snapshot) Data {
	rows := [][]string{
		{"Snapshot", snap.ID},
		{"Date", snap.Date},
		{"Taken", FormatTime(snap.TakenAt)},
		{"Units", strconv.Itoa(snap.Total)},
		{"Available", strconv.Itoa(snap.Available)},
		{"Reserved", strconv.Itoa(snap.Reserved)},
		{"Blocked", strconv.Itoa(snap.Blocked)},
		{"Occupancy", FormatRate(snap.OccupancyRate)},
	}
	if snap.Degraded > 0 {
		rows = append(rows, []string{"Degraded", degradedMarker + " " + strconv.Itoa(snap.Degraded)})
	}
	if len(snap.Anomalies) > 0 {
		rows = append(rows, []string{"Anomalies", strconv.Itoa(len(snap.Anomalies))})
	}

	return Data{
		Headers: []string{"Property", "Value"},
		Rows:    rows,
	}
}

// Units converts unit rows to table format. Wide output adds the stay
// columns.
func Units(rows []snapshot.UnitRow, wide bool) Data {
	headers := []string{"ID", "Name", "Category", "Status", "Reason", ""}
	if wide {
		headers = []string{"ID", "Name", "Category", "Region", "Status", "Reason", "Stay", "Guest", "Dates", "Out", ""}
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		flag := mark(r.Degraded, degradedMarker)
		if !wide {
			out = append(out, []string{
				r.ID.String(),
				r.Name,
				r.Category.Label(),
				r.Status.String(),
				dash(r.Reason),
				flag,
			})
			continue
		}
		out = append(out, []string{
			r.ID.String(),
			r.Name,
			r.Category.Label(),
			dash(r.Region),
			r.Status.String(),
			dash(r.Reason),
			dash(r.StayID),
			dash(r.GuestName),
			stayDates(r.Arrival, r.Departure),
			mark(r.CheckingOut, emoji.Success),
			flag,
		})
	}

	return Data{Headers: headers, Rows: out}
}

// FilterUnits keeps rows matching the status and category, either of
// which may be empty.
func FilterUnits(rows []snapshot.UnitRow, status units.Status, category units.Category) []snapshot.UnitRow {
	if status == "" && category == "" {
		return rows
	}
	out := make([]snapshot.UnitRow, 0, len(rows))
	for _, r := range rows {
		if status != "" && r.Status != status {
			continue
		}
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Anomalies converts a snapshot's anomalies to table format.
func Anomalies(snap *snapshot.Snapshot) Data {
	rows := make([][]string, 0, len(snap.Anomalies))
	for _, a := range snap.Anomalies {
		rows = append(rows, []string{
			string(a.Kind),
			a.UnitID.String(),
			dash(a.UnitName),
			dash(strings.Join(a.StayIDs, ", ")),
			dash(a.Detail),
		})
	}
	return Data{
		Headers: []string{"Kind", "Unit", "Name", "Stays", "Detail"},
		Rows:    rows,
	}
}

// SyncResults converts per-table sync results to table format.
func SyncResults(results ...*tablesync.Result) Data {
	headers := []string{"Table", "Created", "Updated", "Unchanged", "Deleted", "Errors", "Duration"}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		rows = append(rows, []string{
			r.Table,
			strconv.Itoa(r.Created),
			strconv.Itoa(r.Updated),
			strconv.Itoa(r.Unchanged),
			strconv.Itoa(r.Deleted),
			strconv.Itoa(r.Errors),
			FormatDuration(r.Duration),
		})
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: countColumns(1, len(headers)),
	}
}

// Overrides converts override rows to table format.
func Overrides(list []overrides.Override) Data {
	rows := make([][]string, 0, len(list))
	for _, o := range list {
		status := o.ManualStatus.String()
		if status == "" {
			status = emoji.Unknown
		}
		rows = append(rows, []string{
			dash(o.RecordID),
			dash(o.UnitID.String()),
			dash(o.UnitName),
			status,
			dash(o.Reason),
			FormatTime(o.UpdatedAt),
		})
	}
	return Data{
		Headers: []string{"Record", "Unit", "Name", "Status", "Reason", "Updated"},
		Rows:    rows,
	}
}
