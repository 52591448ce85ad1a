// Package aggregate rolls per-unit statuses up into per-category and
// portfolio totals.
package aggregate

import (
	"math"
	"sort"

	"github.com/agentstation/staymap/pkg/units"
)

// CategorySnapshot holds the counts for one category. Snapshots are
// derived values; they are rebuilt every cycle and never mutated.
type CategorySnapshot struct {
	Category      units.Category `json:"category" yaml:"category"`
	Available     int            `json:"available" yaml:"available"`
	Reserved      int            `json:"reserved" yaml:"reserved"`
	Blocked       int            `json:"blocked" yaml:"blocked"`
	Total         int            `json:"total" yaml:"total"`
	OccupancyRate int            `json:"occupancy_rate" yaml:"occupancy_rate"`
}

func (c CategorySnapshot) add(status units.Status) CategorySnapshot {
	switch status {
	case units.StatusReserved:
		c.Reserved++
	case units.StatusBlocked:
		c.Blocked++
	default:
		c.Available++
	}
	c.Total++
	c.OccupancyRate = OccupancyRate(c.Reserved, c.Total)
	return c
}

// Summary is the full rollup of one cycle.
type Summary struct {
	Categories map[units.Category]CategorySnapshot `json:"categories"`
	Portfolio  CategorySnapshot                    `json:"portfolio"`
}

// Aggregate counts every unit in statuses under its category. Units missing
// from categories count as Unknown.
func Aggregate(statuses map[units.ID]units.Status, categories map[units.ID]units.Category) Summary {
	s := Summary{Categories: make(map[units.Category]CategorySnapshot)}
	for id, status := range statuses {
		cat, ok := categories[id]
		if !ok || !cat.IsValid() {
			cat = units.CategoryUnknown
		}
		snap := s.Categories[cat]
		snap.Category = cat
		s.Categories[cat] = snap.add(status)
		s.Portfolio = s.Portfolio.add(status)
	}
	return s
}

// Breakdown returns the non-empty category snapshots in reporting order.
func (s Summary) Breakdown() []CategorySnapshot {
	out := make([]CategorySnapshot, 0, len(s.Categories))
	for _, snap := range s.Categories {
		if snap.Total > 0 {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Category.Rank() < out[j].Category.Rank()
	})
	return out
}

// OccupancyRate returns reserved/total as a whole percentage, rounded half
// away from zero. It returns 0 when total is 0.
func OccupancyRate(reserved, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(reserved) / float64(total) * 100))
}
