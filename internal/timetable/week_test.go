package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekStart(t *testing.T) {
	// 2026-10-19 - понедельник
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, monday, WeekStart(time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, monday, WeekStart(time.Date(2026, 10, 22, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, monday, WeekStart(time.Date(2026, 10, 25, 23, 59, 0, 0, time.UTC)))
}

func TestWeekOffset(t *testing.T) {
	today := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC) // среда

	cases := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), -1},
		{time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), -2},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, WeekOffset(today, tc.date), tc.date.Format(DateLayout))
	}
}
