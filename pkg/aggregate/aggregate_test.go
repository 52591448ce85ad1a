package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/staymap/pkg/units"
)

func TestOccupancyRate(t *testing.T) {
	assert.Equal(t, 0, OccupancyRate(0, 0))
	assert.Equal(t, 0, OccupancyRate(5, 0))
	assert.Equal(t, 0, OccupancyRate(0, 7))
	assert.Equal(t, 100, OccupancyRate(4, 4))
	assert.Equal(t, 33, OccupancyRate(1, 3))
	assert.Equal(t, 67, OccupancyRate(2, 3))
	assert.Equal(t, 50, OccupancyRate(1, 2))
	assert.Equal(t, 13, OccupancyRate(1, 8), "12.5 rounds half away from zero")
}

func TestAggregate(t *testing.T) {
	statuses := map[units.ID]units.Status{
		"1": units.StatusReserved,
		"2": units.StatusAvailable,
		"3": units.StatusBlocked,
		"4": units.StatusReserved,
		"5": units.StatusAvailable,
		"6": units.StatusReserved,
	}
	categories := map[units.ID]units.Category{
		"1": units.CategoryOneBR,
		"2": units.CategoryOneBR,
		"3": units.CategoryStudio,
		"4": units.CategoryTwoBRPremium,
		"5": units.CategoryThreeBR,
	}

	s := Aggregate(statuses, categories)

	assert.Equal(t, CategorySnapshot{Category: units.CategoryOneBR, Available: 1, Reserved: 1, Total: 2, OccupancyRate: 50}, s.Categories[units.CategoryOneBR])
	assert.Equal(t, CategorySnapshot{Category: units.CategoryStudio, Blocked: 1, Total: 1}, s.Categories[units.CategoryStudio])
	assert.Equal(t, 1, s.Categories[units.CategoryUnknown].Reserved, "missing category counts as unknown")

	assert.Equal(t, CategorySnapshot{Available: 2, Reserved: 3, Blocked: 1, Total: 6, OccupancyRate: 50}, s.Portfolio)

	breakdown := s.Breakdown()
	require.Len(t, breakdown, 5)
	got := make([]units.Category, len(breakdown))
	for i, b := range breakdown {
		got[i] = b.Category
	}
	assert.Equal(t, []units.Category{
		units.CategoryStudio,
		units.CategoryOneBR,
		units.CategoryTwoBRPremium,
		units.CategoryThreeBR,
		units.CategoryUnknown,
	}, got)

	sum := 0
	for _, b := range breakdown {
		sum += b.Total
		assert.Equal(t, b.Total, b.Available+b.Reserved+b.Blocked)
	}
	assert.Equal(t, s.Portfolio.Total, sum)
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil, nil)
	assert.Empty(t, s.Breakdown())
	assert.Equal(t, 0, s.Portfolio.OccupancyRate)
	assert.Equal(t, 0, s.Portfolio.Total)
}
