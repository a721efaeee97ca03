package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// validCell is the well-known example H3 index from Uber's own h3-go
// fixtures (a cell in San Francisco), used throughout these tests so
// CellCenter has something resolvable to work with.
const validCell = "8928308280fffff"

func TestCellCenterValid(t *testing.T) {
	lat, lng, ok := CellCenter(validCell)
	require.True(t, ok)
	require.NotZero(t, lat)
	require.NotZero(t, lng)
}

func TestCellCenterInvalid(t *testing.T) {
	_, _, ok := CellCenter("not-a-cell")
	require.False(t, ok)
}

func TestHaversineKMZeroForSamePoint(t *testing.T) {
	d := HaversineKM(37.7, -122.4, 37.7, -122.4)
	require.InDelta(t, 0.0, d, 1e-9)
}

func TestHaversineKMKnownDistance(t *testing.T) {
	// Roughly London to Paris, ~344km great-circle.
	d := HaversineKM(51.5074, -0.1278, 48.8566, 2.3522)
	require.InDelta(t, 344, d, 15)
}

func TestCellDistanceKMSoftFailsOnInvalidCell(t *testing.T) {
	d := CellDistanceKM(validCell, "garbage")
	require.Equal(t, 0.0, d)
}

func TestCellDistanceKMSameCellIsZero(t *testing.T) {
	d := CellDistanceKM(validCell, validCell)
	require.InDelta(t, 0.0, d, 1e-9)
}

func TestClampDtFloor(t *testing.T) {
	require.Equal(t, minDtSeconds, ClampDt(0))
	require.Equal(t, minDtSeconds, ClampDt(-5))
	require.Equal(t, 10.0, ClampDt(10))
}

func TestComputeDisplacementsLength(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamps := []time.Time{now, now.Add(time.Minute), now.Add(2 * time.Minute)}
	cells := []string{validCell, validCell, validCell}

	disp := ComputeDisplacements(timestamps, cells)
	require.Len(t, disp, 2)
	require.Equal(t, 60.0, disp[0].DtSeconds)
}

func TestComputeDisplacementsShortInputReturnsNil(t *testing.T) {
	now := time.Now()
	require.Nil(t, ComputeDisplacements([]time.Time{now}, []string{validCell}))
	require.Nil(t, ComputeDisplacements(nil, nil))
}
