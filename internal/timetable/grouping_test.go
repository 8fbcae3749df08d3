package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

func TestGroupByDate(t *testing.T) {
	lessons := []model.Lesson{
		{Date: "21.10.2026", StartTime: "11:55", Discipline: "Физика", Classroom: "101"},
		{Date: "20.10.2026", StartTime: "10:20", Discipline: "Алгебра", Classroom: "202"},
		{Date: "21.10.2026", StartTime: "08:45", Discipline: "Химия", Classroom: "303"},
		{Date: "21.10.2026", StartTime: "08:45", Discipline: "Химия", Classroom: "303"},
		{Date: "битая дата", StartTime: "08:45", Discipline: "История"},
	}

	days := GroupByDate(lessons, time.UTC)

	require.Len(t, days, 2)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), days[0].Date)
	assert.Equal(t, "Вторник", days[0].WeekdayName)
	assert.Len(t, days[0].Lessons, 1)

	assert.Equal(t, "Среда", days[1].WeekdayName)
	require.Len(t, days[1].Lessons, 2)
	assert.Equal(t, "Химия", days[1].Lessons[0].Discipline)
	assert.Equal(t, "Физика", days[1].Lessons[1].Discipline)
}

func TestGroupByDate_Empty(t *testing.T) {
	days := GroupByDate(nil, time.UTC)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestFindDay(t *testing.T) {
	days := GroupByDate([]model.Lesson{{Date: "20.10.2026", StartTime: "08:45"}}, time.UTC)

	day, ok := FindDay(days, time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Len(t, day.Lessons, 1)

	_, ok = FindDay(days, time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
