package keyboard

import (
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

// Callback data навигации по расписанию
const (
	DayPrev     = "day:prev"
	DayNext     = "day:next"
	DayToday    = "day:today"
	DayRefresh  = "day:refresh"
	WeekImage   = "week:img"
	PickTeacher = "teacher:" // teacher:42
	PickGroup   = "group:"   // group:К0709-23
)

// maxPickButtons ограничение Telegram на размер callback data и разумная длина списка
const maxPickButtons = 10

// layout ряды inline-кнопок; пустые ряды не добавляются
type layout [][]models.InlineKeyboardButton

func (l *layout) row(buttons ...models.InlineKeyboardButton) {
	if len(buttons) > 0 {
		*l = append(*l, buttons)
	}
}

func (l layout) markup() *models.InlineKeyboardMarkup {
	if l == nil {
		l = layout{}
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: l}
}

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

// ScheduleNavigation клавиатура под карточкой дня
func ScheduleNavigation() *models.InlineKeyboardMarkup {
	var l layout
	l.row(button("◀", DayPrev), button("Сегодня", DayToday), button("▶", DayNext))
	l.row(button("🔄 Обновить", DayRefresh), button("🗓 Неделя", WeekImage))
	return l.markup()
}

// RefreshOnly клавиатура для экрана ошибки
func RefreshOnly() *models.InlineKeyboardMarkup {
	var l layout
	l.row(button("🔄 Повторить", DayRefresh))
	return l.markup()
}

// TeacherChoices кнопки выбора преподавателя среди нескольких совпадений
func TeacherChoices(candidates []model.TeacherInfo) *models.InlineKeyboardMarkup {
	var l layout
	for i, t := range candidates {
		if i == maxPickButtons {
			break
		}
		l.row(button(t.Name, PickTeacher+t.ID))
	}
	return l.markup()
}

// GroupChoices кнопки выбора группы
func GroupChoices(groups []model.GroupInfo) *models.InlineKeyboardMarkup {
	var l layout
	row := make([]models.InlineKeyboardButton, 0, 2)
	for i, g := range groups {
		if i == maxPickButtons {
			break
		}
		row = append(row, button(g.Name, PickGroup+g.Name))
		if len(row) == 2 {
			l.row(row...)
			row = make([]models.InlineKeyboardButton, 0, 2)
		}
	}
	l.row(row...)
	return l.markup()
}
