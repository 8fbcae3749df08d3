package model

import "time"

// DailySchedule занятия одного дня
type DailySchedule struct {
	Date        time.Time
	WeekdayName string
	Lessons     []Lesson
}
