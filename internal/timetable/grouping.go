package timetable

import (
	"sort"
	"time"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

// Dedup убирает дубли по (дата, начало, дисциплина, аудитория), сохраняя первый
func Dedup(lessons []model.Lesson) []model.Lesson {
	seen := make(map[string]struct{}, len(lessons))
	result := make([]model.Lesson, 0, len(lessons))
	for _, l := range lessons {
		key := l.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, l)
	}
	return result
}

// GroupByDate раскладывает плоский список занятий по дням.
// Занятия с нераспознанной датой отбрасываются.
func GroupByDate(lessons []model.Lesson, loc *time.Location) []model.DailySchedule {
	if len(lessons) == 0 {
		return []model.DailySchedule{}
	}

	byDate := make(map[time.Time][]model.Lesson)
	for _, l := range Dedup(lessons) {
		date, err := time.ParseInLocation(DateLayout, l.Date, loc)
		if err != nil {
			continue
		}
		byDate[date] = append(byDate[date], l)
	}

	days := make([]model.DailySchedule, 0, len(byDate))
	for date, items := range byDate {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].StartTime < items[j].StartTime
		})
		days = append(days, model.DailySchedule{
			Date:        date,
			WeekdayName: WeekdayName(date.Weekday()),
			Lessons:     items,
		})
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// FindDay ищет день в сгруппированном расписании
func FindDay(days []model.DailySchedule, date time.Time) (model.DailySchedule, bool) {
	for _, d := range days {
		if SameDay(d.Date, date) {
			return d, true
		}
	}
	return model.DailySchedule{}, false
}
