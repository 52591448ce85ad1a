package table

import (
	"strconv"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/cmd/emoji"
)

// Report converts an hourly report result to a key-value table.
func Report(r *staymap.ReportResult) Data {
	posted := emoji.Success + " posted"
	if !r.Posted {
		posted = emoji.Optional + " already posted this hour"
	}

	rows := [][]string{
		{"Bucket", r.Bucket},
		{"Status", posted},
		{"Revenue", FormatMoney(r.NightlyRevenue, r.Currency)},
	}
	if snap := r.Snapshot; snap != nil {
		rows = append(rows,
			[]string{"Units", strconv.Itoa(snap.Total)},
			[]string{"Reserved", strconv.Itoa(snap.Reserved)},
			[]string{"Available", strconv.Itoa(snap.Available)},
			[]string{"Blocked", strconv.Itoa(snap.Blocked)},
			[]string{"Occupancy", FormatRate(snap.OccupancyRate)},
		)
	}

	return Data{
		Headers: []string{"Property", "Value"},
		Rows:    rows,
	}
}
