package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/timetable"
)

// Тексты, которые показываются поверх расписания
const (
	StaleBanner       = "⚠️ Данные могут быть устаревшими"
	NoLessons         = "Занятий нет 🎉"
	RestartSuggestion = "🔌 Соединение восстановлено. Отправьте /start, чтобы перезапустить сессию."
)

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// FormatEntity подпись группы или преподавателя
func FormatEntity(e model.Entity) string {
	if e.IsZero() {
		return ""
	}
	if e.Kind == model.EntityTeacher {
		return "👤 Преподаватель #" + e.ID
	}
	return "👥 " + e.ID
}

// FormatDay карточка одного дня
func FormatDay(entity model.Entity, date time.Time, day model.DailySchedule, hasDay, stale bool) string {
	var sb strings.Builder

	if stale {
		sb.WriteString(StaleBanner)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "📅 %s, %s\n", timetable.WeekdayName(date.Weekday()), FormatDate(date))
	if label := FormatEntity(entity); label != "" {
		sb.WriteString(label)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if !hasDay || len(day.Lessons) == 0 {
		sb.WriteString(NoLessons)
		return sb.String()
	}

	for i := range day.Lessons {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(FormatLesson(&day.Lessons[i]))
	}
	return sb.String()
}

// FormatLesson несколько строк про одно занятие
func FormatLesson(l *model.Lesson) string {
	var sb strings.Builder

	if l.NumberPair > 0 {
		fmt.Fprintf(&sb, "%d. ", l.NumberPair)
	}
	fmt.Fprintf(&sb, "🕐 %s–%s · %s\n", l.StartTime, l.EndTime, l.Discipline)

	if l.GroupType != "" {
		fmt.Fprintf(&sb, "   📝 %s\n", l.GroupType)
	}
	if loc := l.Location(); loc != "" {
		fmt.Fprintf(&sb, "   🏫 %s\n", loc)
	}
	if l.Address != "" {
		fmt.Fprintf(&sb, "   📍 %s\n", l.Address)
	}
	if t := l.PrimaryTeacher(); t != nil {
		if name := t.DisplayName(); name != "" {
			fmt.Fprintf(&sb, "   👤 %s\n", name)
		}
	}
	if l.Group != "" {
		fmt.Fprintf(&sb, "   👥 %s\n", l.Group)
	}
	if l.URLOnline != "" {
		fmt.Fprintf(&sb, "   🔗 %s\n", l.URLOnline)
	}
	if l.Comment != "" {
		fmt.Fprintf(&sb, "   💬 %s\n", l.Comment)
	}
	return sb.String()
}

// FormatError экран ошибки
func FormatError(message string) string {
	return "❌ " + message
}

// FormatNextLesson ответ на /nextlesson
func FormatNextLesson(next timetable.UpcomingLesson, now time.Time) string {
	var head string
	if !now.Before(next.Start) {
		head = "▶️ Сейчас идёт занятие"
	} else {
		minutes := int(next.Start.Sub(now).Round(time.Minute) / time.Minute)
		head = fmt.Sprintf("⏭ Следующее занятие через %s", FormatDuration(minutes))
		if !timetable.SameDay(next.Start, now) {
			head = fmt.Sprintf("⏭ Следующее занятие: %s, %s",
				timetable.WeekdayName(next.Start.Weekday()), FormatDate(next.Start))
		}
	}
	return head + "\n\n" + FormatLesson(&next.Lesson)
}

// FormatNotification текст напоминания о занятии
func FormatNotification(next timetable.UpcomingLesson, now time.Time) string {
	minutes := int(next.Start.Sub(now).Round(time.Minute) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("🔔 Через %s начнётся занятие\n\n%s", FormatDuration(minutes), FormatLesson(&next.Lesson))
}

// FormatGroups список групп
func FormatGroups(groups []model.GroupInfo, limit int) string {
	if len(groups) == 0 {
		return "Группы не найдены."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 Найдено групп: %d\n\n", len(groups))
	for i, g := range groups {
		if i == limit {
			fmt.Fprintf(&sb, "… и ещё %d. Уточните запрос.", len(groups)-limit)
			break
		}
		sb.WriteString(g.Name)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatTeachers список преподавателей с id для /teacher
func FormatTeachers(teachers []model.TeacherInfo, limit int) string {
	if len(teachers) == 0 {
		return "Преподаватели не найдены."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 Найдено преподавателей: %d\n\n", len(teachers))
	for i, t := range teachers {
		if i == limit {
			fmt.Fprintf(&sb, "… и ещё %d. Уточните запрос.", len(teachers)-limit)
			break
		}
		fmt.Fprintf(&sb, "%s (id %s)\n", t.Name, t.ID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatPreferences текущие настройки чата
func FormatPreferences(p *model.Preferences) string {
	onOff := func(v bool) string {
		if v {
			return "вкл"
		}
		return "выкл"
	}

	entity := "не выбрано"
	if e, ok := p.Entity(); ok {
		entity = FormatEntity(e)
	}

	return fmt.Sprintf(
		"⚙️ Настройки\n\n"+
			"Расписание: %s\n"+
			"Тема: %s\n"+
			"Автообновление: %s, каждые %s\n"+
			"Уведомления: %s, за %s до начала",
		entity,
		p.Theme,
		onOff(p.AutoUpdateEnabled), FormatDuration(p.AutoUpdateInterval),
		onOff(p.NotificationsEnabled), FormatDuration(p.NotificationLeadTime),
	)
}
