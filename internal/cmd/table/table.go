// Package table converts snapshots, sync results and reports into rows for
// the CLI table formatter.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/staymap/internal/cmd/emoji"
	"github.com/agentstation/staymap/pkg/aggregate"
	"github.com/agentstation/staymap/pkg/constants"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// countColumns right-aligns every column after the first n.
func countColumns(n, total int) []Align {
	align := make([]Align, total)
	for i := range align {
		if i >= n {
			align[i] = AlignRight
		}
	}
	return align
}

// Categories converts a category breakdown to table format, with a
// portfolio row at the bottom when portfolio is non-nil.
func Categories(cats []aggregate.CategorySnapshot, portfolio *aggregate.CategorySnapshot) Data {
	headers := []string{"Category", "Available", "Reserved", "Blocked", "Total", "Occupancy"}

	rows := make([][]string, 0, len(cats)+1)
	for _, c := range cats {
		rows = append(rows, categoryRow(c.Category.Label(), c))
	}
	if portfolio != nil {
		rows = append(rows, categoryRow("All", *portfolio))
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: countColumns(1, len(headers)),
	}
}

func categoryRow(label string, c aggregate.CategorySnapshot) []string {
	return []string{
		label,
		strconv.Itoa(c.Available),
		strconv.Itoa(c.Reserved),
		strconv.Itoa(c.Blocked),
		strconv.Itoa(c.Total),
		FormatRate(c.OccupancyRate),
	}
}

// FormatRate renders an integer occupancy percentage.
func FormatRate(rate int) string {
	return strconv.Itoa(rate) + "%"
}

// FormatMoney renders an amount with its currency code.
func FormatMoney(amount float64, currency string) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatTime renders a timestamp for humans, or "-" when unset.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(constants.TimeFormatHuman)
}

// FormatDuration rounds a duration for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

// dash replaces empty cells.
func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// mark renders a boolean flag column.
func mark(b bool, symbol string) string {
	if b {
		return symbol
	}
	return ""
}

// stayDates renders an arrival and departure pair.
func stayDates(arrival, departure string) string {
	if arrival == "" && departure == "" {
		return "-"
	}
	return fmt.Sprintf("%s → %s", dash(arrival), dash(departure))
}

// degradedMarker flags values computed without complete feed data.
var degradedMarker = emoji.Warning
