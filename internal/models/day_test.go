package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf_UsesLocalCalendarDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2025-12-01 01:30 in Tokyo is still 2025-11-30 in UTC.
	ts := time.Date(2025, time.December, 1, 1, 30, 0, 0, tokyo)

	assert.Equal(t, "2025-12-01", DayOf(ts).String())
	assert.Equal(t, "2025-11-30", DayOf(ts.UTC()).String())
}

func TestDay_ScanAndValue(t *testing.T) {
	d := NewDay(2025, time.December, 1)

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-12-01", v)

	var fromString Day
	require.NoError(t, fromString.Scan("2025-12-01"))
	assert.True(t, d.Equal(fromString))

	var fromTimestamp Day
	require.NoError(t, fromTimestamp.Scan([]byte("2025-12-01T00:00:00Z")))
	assert.True(t, d.Equal(fromTimestamp))

	var bad Day
	assert.Error(t, bad.Scan(42))
}

func TestDay_JSON(t *testing.T) {
	var payload struct {
		Date Day `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2025-12-01T18:00:00.000Z"}`), &payload))
	assert.Equal(t, "2025-12-01", payload.Date.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-12-01"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"12/01/2025"}`), &payload))
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(2024, time.February)

	assert.Equal(t, "2024-02-01", first.String())
	assert.Equal(t, "2024-02-29", last.String())
	assert.Equal(t, "2024-03-01", last.AddDays(1).String())
}
