package timetable

import (
	"sort"
	"time"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

// UpcomingLesson занятие с вычисленными границами
type UpcomingLesson struct {
	Lesson model.Lesson
	Start  time.Time
	End    time.Time
}

// NextLesson ближайшее занятие, которое ещё не закончилось (идущее тоже подходит)
func NextLesson(lessons []model.Lesson, now time.Time) (UpcomingLesson, bool) {
	upcoming := make([]UpcomingLesson, 0, len(lessons))
	for i := range lessons {
		start, end, err := LessonBounds(&lessons[i], now.Location())
		if err != nil {
			continue
		}
		if end.After(now) {
			upcoming = append(upcoming, UpcomingLesson{Lesson: lessons[i], Start: start, End: end})
		}
	}
	if len(upcoming) == 0 {
		return UpcomingLesson{}, false
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start.Before(upcoming[j].Start)
	})
	return upcoming[0], true
}

// ShouldNotify true, если now попадает в окно [начало - leadTime, начало)
func ShouldNotify(start, now time.Time, leadMinutes int) bool {
	trigger := start.Add(-time.Duration(leadMinutes) * time.Minute)
	return !now.Before(trigger) && now.Before(start)
}
