package timetable

import "time"

// DayStart нормализует время к началу дня
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart понедельник недели, в которую попадает дата
func WeekStart(t time.Time) time.Time {
	day := DayStart(t)
	daysSinceMonday := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}
	return day.AddDate(0, 0, -daysSinceMonday)
}

// WeekOffset количество календарных недель от недели today до недели date
func WeekOffset(today, date time.Time) int {
	from := WeekStart(today)
	to := WeekStart(date.In(today.Location()))

	// через календарные дни, чтобы переход на летнее время не ломал деление
	fromDays := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDays := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	days := int(toDays.Sub(fromDays).Hours() / 24)
	return days / 7
}

// SameDay проверяет, являются ли две даты одним днём
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
