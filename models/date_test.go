package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateScan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want string
	}{
		{"string", "2025-08-01", "2025-08-01"},
		{"bytes", []byte("2025-12-31"), "2025-12-31"},
		{"timestamp text", "2026-01-01T00:00:00Z", "2026-01-01"},
		{"time", time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC), "2025-03-04"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, tt.want, d.String())
		})
	}

	var d Date
	assert.Error(t, d.Scan(nil))
	assert.Error(t, d.Scan(42))
}

func TestDateArithmetic(t *testing.T) {
	start := MustParseDate("2025-08-01")

	assert.Equal(t, "2025-08-08", start.AddDays(7).String())
	assert.Equal(t, "2026-07-31", start.AddDate(1, 0, -1).String())
	assert.True(t, start.Before(start.AddDays(1)))
	assert.True(t, start.AddDays(1).After(start))
	assert.True(t, start.Equal(NewDate(2025, time.August, 1)))
}

func TestDateYearsSince(t *testing.T) {
	birth := MustParseDate("1990-06-15")

	assert.Equal(t, 35, MustParseDate("2025-06-15").YearsSince(birth))
	assert.Equal(t, 34, MustParseDate("2025-06-14").YearsSince(birth))
}

func TestDateJSON(t *testing.T) {
	d := MustParseDate("2025-08-01")
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-08-01"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back))
}

func TestStandingRowRecord(t *testing.T) {
	row := &StandingRow{ClubID: 1}
	row.Record(3, 1)
	row.Record(0, 0)
	row.Record(1, 2)

	assert.Equal(t, 3, row.Played)
	assert.Equal(t, 1, row.Wins)
	assert.Equal(t, 1, row.Draws)
	assert.Equal(t, 1, row.Losses)
	assert.Equal(t, 4, row.GoalsFor)
	assert.Equal(t, 3, row.GoalsAgainst)
	assert.Equal(t, 1, row.GoalDifference)
	assert.Equal(t, 4, row.Points)
}

func TestStandingRowRanksAbove(t *testing.T) {
	a := &StandingRow{ClubID: 2, Points: 10, GoalDifference: 3, GoalsFor: 8}
	b := &StandingRow{ClubID: 1, Points: 10, GoalDifference: 3, GoalsFor: 8}
	c := &StandingRow{ClubID: 3, Points: 10, GoalDifference: 3, GoalsFor: 9}

	assert.True(t, b.RanksAbove(a), "lower club id breaks a full tie")
	assert.True(t, c.RanksAbove(b), "goals for before club id")
	assert.False(t, a.RanksAbove(c))
}
