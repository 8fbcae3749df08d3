package timetable

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

// Сетка звонков: начало дня 08:45, пара 1:20, перерыв 0:15
const (
	DayStartHour   = 8
	DayStartMinute = 45
	LessonMinutes  = 80
	BreakMinutes   = 15
)

const (
	DateLayout = "02.01.2006"
	TimeLayout = "15:04"
)

// SlotTimes вычисляет начало и конец пары по её номеру (пары нумеруются с 1)
func SlotTimes(numberPair int) (string, string) {
	idx := numberPair - 1
	if idx < 0 {
		idx = 0
	}
	startMinutes := DayStartHour*60 + DayStartMinute + idx*(LessonMinutes+BreakMinutes)
	endMinutes := startMinutes + LessonMinutes
	return formatClock(startMinutes), formatClock(endMinutes)
}

func formatClock(minutes int) string {
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Normalize подготавливает занятие из ответа API к записи в кеш:
// достраивает время по номеру пары, денормализует основного преподавателя,
// проставляет ключ недели
func Normalize(l model.Lesson, weekID string) model.Lesson {
	if strings.TrimSpace(l.StartTime) == "" || strings.TrimSpace(l.EndTime) == "" {
		l.StartTime, l.EndTime = SlotTimes(l.NumberPair)
	}
	l.TeacherDetails = l.Teachers.First()
	if l.Color == "" {
		l.Color = model.DefaultLessonColor
	}
	l.WeekIdentifier = weekID
	return l
}

// NormalizeAll применяет Normalize ко всему ответу
func NormalizeAll(lessons []model.Lesson, weekID string) []model.Lesson {
	result := make([]model.Lesson, 0, len(lessons))
	for _, l := range lessons {
		result = append(result, Normalize(l, weekID))
	}
	return result
}

// FillPrimaryTeacher дозаполняет основного преподавателя у записей из кеша
func FillPrimaryTeacher(lessons []model.Lesson) []model.Lesson {
	for i := range lessons {
		if lessons[i].TeacherDetails == nil && len(lessons[i].Teachers) > 0 {
			lessons[i].TeacherDetails = lessons[i].Teachers.First()
		}
	}
	return lessons
}

// LessonBounds возвращает начало и конец занятия в указанной зоне
func LessonBounds(l *model.Lesson, loc *time.Location) (time.Time, time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, l.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", l.Date, err)
	}
	start, err := time.Parse(TimeLayout, l.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start time %q: %w", l.StartTime, err)
	}
	end, err := time.Parse(TimeLayout, l.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end time %q: %w", l.EndTime, err)
	}

	startAt := time.Date(date.Year(), date.Month(), date.Day(), start.Hour(), start.Minute(), 0, 0, loc)
	endAt := time.Date(date.Year(), date.Month(), date.Day(), end.Hour(), end.Minute(), 0, 0, loc)
	return startAt, endAt, nil
}
