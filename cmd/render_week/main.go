package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/sirius_schedule/internal/controller/render"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/timetable"
)

// Рисует тестовую неделю в week.png и week_dark.png
func main() {
	now := time.Now()
	monday := timetable.WeekStart(now)

	lessons := []model.Lesson{
		// Понедельник
		sampleLesson(monday, 0, 1, "Математический анализ", "Лекция", "#FFFFFF"),
		sampleLesson(monday, 0, 2, "Линейная алгебра", "Практика", "#FFFFFF"),
		// Вторник
		sampleLesson(monday, 1, 2, "Физика", "Лекция", "#C8E6C9"),
		sampleLesson(monday, 1, 4, "Программирование на Go", "Практическое занятие", "#FFFFFF"),
		// Среда
		sampleLesson(monday, 2, 1, "Английский язык", "Практика", "#FFFFFF"),
		// Пятница
		sampleLesson(monday, 4, 3, "Дискретная математика", "Экзамен", "#FFFFFF"),
		sampleLesson(monday, 4, 5, "Физическая культура", "Спорт", "#FFFFFF"),
	}
	lessons = timetable.NormalizeAll(lessons, model.Group("К0709-23").WeekID(0))
	days := timetable.GroupByDate(lessons, now.Location())

	for _, theme := range []model.Theme{model.ThemeLight, model.ThemeDark} {
		imageData, err := render.GenerateWeekImage(render.WeekImageOptions{
			WeekStart: monday,
			Days:      days,
			Title:     "К0709-23",
			Theme:     theme,
			Now:       now,
		})
		if err != nil {
			fmt.Printf("Ошибка генерации изображения: %v\n", err)
			os.Exit(1)
		}

		filename := "week.png"
		if theme == model.ThemeDark {
			filename = "week_dark.png"
		}
		if err := os.WriteFile(filename, imageData, 0644); err != nil {
			fmt.Printf("Ошибка сохранения файла: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Изображение успешно сохранено в %s\n", filename)
	}

	fmt.Printf("📅 Неделя: %s - %s\n", monday.Format("02.01.2006"), monday.AddDate(0, 0, 6).Format("02.01.2006"))
	fmt.Printf("📊 Занятий: %d\n", len(lessons))
}

func sampleLesson(monday time.Time, day, pair int, discipline, groupType, color string) model.Lesson {
	date := monday.AddDate(0, 0, day)
	return model.Lesson{
		Date:       date.Format("02.01.2006"),
		DayWeek:    timetable.WeekdayName(date.Weekday()),
		Discipline: discipline,
		GroupType:  groupType,
		Classroom:  fmt.Sprintf("%d0%d", pair, day+1),
		Group:      "К0709-23",
		NumberPair: pair,
		Color:      color,
	}
}
