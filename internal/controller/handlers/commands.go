package handlers

import (
	"bytes"
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/controller/render"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
	"github.com/Freeeeeet/sirius_schedule/internal/timetable"
)

type commandFunc func(ctx context.Context, chatID int64, args string)

// Command описание команды для меню бота
type Command struct {
	Name        string
	Description string
}

// Commands список команд в порядке показа в меню
var Commands = []Command{
	{Name: "start", Description: "🚀 Начать работу с ботом"},
	{Name: "today", Description: "📅 Расписание на сегодня"},
	{Name: "nextday", Description: "▶ Следующий день"},
	{Name: "prevday", Description: "◀ Предыдущий день"},
	{Name: "date", Description: "📆 Расписание на дату (дд.мм.гггг)"},
	{Name: "week", Description: "🗓 Картинка недели"},
	{Name: "nextlesson", Description: "⏭ Ближайшее занятие"},
	{Name: "refresh", Description: "🔄 Обновить из сети"},
	{Name: "group", Description: "👥 Выбрать группу"},
	{Name: "teacher", Description: "👤 Выбрать преподавателя"},
	{Name: "groups", Description: "🔎 Поиск групп"},
	{Name: "teachers", Description: "🔎 Поиск преподавателей"},
	{Name: "notify", Description: "🔔 Уведомления о занятиях"},
	{Name: "autoupdate", Description: "♻️ Автообновление"},
	{Name: "theme", Description: "🎨 Тема картинки недели"},
	{Name: "settings", Description: "⚙️ Настройки"},
	{Name: "help", Description: "❓ Справка по командам"},
}

const helpText = "📚 Справка по командам:\n\n" +
	"Выбор расписания:\n" +
	"/group К0709-23 - выбрать группу\n" +
	"/teacher Иванов - выбрать преподавателя (по ФИО или id)\n" +
	"/groups, /teachers - поиск по справочнику\n\n" +
	"Просмотр:\n" +
	"/today, /nextday, /prevday - день расписания\n" +
	"/date 15.09.2024 - конкретная дата\n" +
	"/week - картинка текущей недели\n" +
	"/nextlesson - ближайшее занятие\n" +
	"/refresh - загрузить свежие данные\n\n" +
	"Настройки:\n" +
	"/notify on 15 | off - напоминания о занятиях\n" +
	"/autoupdate on 30 | off - фоновое обновление\n" +
	"/theme light | dark | system\n" +
	"/settings - текущие настройки\n\n" +
	"Без сети бот показывает сохранённое расписание."

const selectEntityHint = "👋 " + service.MsgSelectEntity + "\n\n" +
	"Например: /group К0709-23\n" +
	"Или преподавателя: /teacher Иванов"

func (h *Handlers) routes() map[string]commandFunc {
	return map[string]commandFunc{
		"start":      h.handleStart,
		"help":       h.handleHelp,
		"today":      h.handleToday,
		"nextday":    h.handleNextDay,
		"prevday":    h.handlePrevDay,
		"date":       h.handleDate,
		"week":       h.handleWeek,
		"nextlesson": h.handleNextLesson,
		"refresh":    h.handleRefresh,
		"group":      h.handleGroup,
		"teacher":    h.handleTeacher,
		"groups":     h.handleGroups,
		"teachers":   h.handleTeachers,
		"notify":     h.handleNotify,
		"autoupdate": h.handleAutoUpdate,
		"theme":      h.handleTheme,
		"settings":   h.handleSettings,
	}
}

// HandleTextMessage обрабатывает команды и текст.
// Текст с префиксом группы считается выбором группы.
func (h *Handlers) HandleTextMessage(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	chatID := update.Message.Chat.ID
	cmd, args := parseCommand(update.Message.Text)
	if cmd == "" {
		text := strings.TrimSpace(update.Message.Text)
		if looksLikeGroup(text) {
			h.handleGroup(ctx, chatID, text)
			return
		}
		h.reply(ctx, chatID, "Не понимаю 🤔 Список команд: /help", nil)
		return
	}

	handler, ok := h.routes()[cmd]
	if !ok {
		h.reply(ctx, chatID, "❌ Неизвестная команда. Список команд: /help", nil)
		return
	}

	h.logger.Debug("Command received", zap.Int64("chat_id", chatID), zap.String("command", cmd))
	handler(ctx, chatID, args)
}

// session сессия чата; новая сессия сразу получает сохранённый выбор
func (h *Handlers) session(ctx context.Context, chatID int64) *service.Session {
	s, created := h.registry.GetOrCreate(chatID)
	if created {
		h.restoreEntity(ctx, chatID, s)
	}
	return s
}

func (h *Handlers) restoreEntity(ctx context.Context, chatID int64, s *service.Session) bool {
	p, err := h.prefs.Get(ctx, chatID)
	if err != nil {
		h.logger.Warn("Failed to load preferences", zap.Int64("chat_id", chatID), zap.Error(err))
		return false
	}
	entity, ok := p.Entity()
	if !ok {
		return false
	}
	s.SelectEntity(entity)
	return true
}

// requireEntity сессия с выбранной группой или подсказка, как её выбрать
func (h *Handlers) requireEntity(ctx context.Context, chatID int64) (*service.Session, bool) {
	s := h.session(ctx, chatID)
	if s.Snapshot().Entity.IsZero() {
		h.reply(ctx, chatID, selectEntityHint, nil)
		return nil, false
	}
	return s, true
}

// handleStart перезапускает сессию чата
func (h *Handlers) handleStart(ctx context.Context, chatID int64, _ string) {
	first, err := h.prefs.CompleteFirstLaunch(ctx, chatID)
	if err != nil {
		h.logger.Warn("Failed to save first launch", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if first {
		h.reply(ctx, chatID, "👋 Привет! Я показываю расписание занятий и работаю даже без сети.\n\n"+helpText, nil)
	}

	h.newCard(chatID)
	s := h.registry.Reset(chatID)
	if !h.restoreEntity(ctx, chatID, s) {
		h.reply(ctx, chatID, selectEntityHint, nil)
	}
}

// handleHelp обрабатывает команду /help
func (h *Handlers) handleHelp(ctx context.Context, chatID int64, _ string) {
	h.reply(ctx, chatID, helpText, nil)
}

func (h *Handlers) handleToday(ctx context.Context, chatID int64, _ string) {
	s, ok := h.requireEntity(ctx, chatID)
	if !ok {
		return
	}
	h.newCard(chatID)
	s.SelectDate(h.now(), false, false)
}

func (h *Handlers) handleNextDay(ctx context.Context, chatID int64, _ string) {
	s, ok := h.requireEntity(ctx, chatID)
	if !ok {
		return
	}
	h.newCard(chatID)
	s.NextDay()
}

func (h *Handlers) handlePrevDay(ctx context.Context, chatID int64, _ string) {
	s, ok := h.requireEntity(ctx, chatID)
	if !ok {
		return
	}
	h.newCard(chatID)
	s.PreviousDay()
}

func (h *Handlers) handleDate(ctx context.Context, chatID int64, args string) {
	date, err := parseDate(args, h.now())
	if err != nil {
		h.reply(ctx, chatID, "❌ Укажите дату в формате дд.мм.гггг, например: /date 15.09.2024", nil)
		return
	}

	s, ok := h.requireEntity(ctx, chatID)
	if !ok {
		return
	}
	h.newCard(chatID)
	s.SelectDate(date, false, false)
}

func (h *Handlers) handleRefresh(ctx context.Context, chatID int64, _ string) {
	s, ok := h.requireEntity(ctx, chatID)
	if !ok {
		return
	}
	h.newCard(chatID)
	s.Refresh()
}

// handleWeek отправляет картинку недели, которая сейчас показана в сессии
func (h *Handlers) handleWeek(ctx context.Context, chatID int64, _ string) {
	s, ok := h.requireEntity(ctx, chatID)
	if !ok {
		return
	}

	snap := s.Snapshot()
	if !snap.Display.IsSuccess() {
		h.reply(ctx, chatID, "⏳ Расписание недели ещё не загружено. Попробуйте через пару секунд.", nil)
		return
	}

	theme := model.ThemeSystem
	if p, err := h.prefs.Get(ctx, chatID); err == nil {
		theme = p.Theme
	}

	png, err := render.GenerateWeekImage(render.WeekImageOptions{
		WeekStart: snap.SelectedDate,
		Days:      s.Days(),
		Title:     snap.Entity.ID,
		Theme:     theme,
		Now:       h.now(),
	})
	if err != nil {
		h.sendError(ctx, chatID, err)
		return
	}

	caption := "🗓 Неделя с " + render.FormatDate(timetable.WeekStart(snap.SelectedDate))
	if snap.Display.Stale {
		caption += "\n" + render.StaleBanner
	}

	_, err = h.sender.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(png)},
		Caption: caption,
	})
	if err != nil {
		h.logger.Warn("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// handleNextLesson ближайшее занятие текущей или следующей недели
func (h *Handlers) handleNextLesson(ctx context.Context, chatID int64, _ string) {
	s, ok := h.requireEntity(ctx, chatID)
	if !ok {
		return
	}
	entity := s.Snapshot().Entity
	now := h.now()

	var stale bool
	for _, week := range []int{0, 1} {
		outcome, ok := h.schedule.ResolveTerminal(ctx, entity, week, false)
		if !ok {
			return
		}
		if outcome.IsError() {
			h.reply(ctx, chatID, render.FormatError(outcome.Message), nil)
			return
		}
		stale = stale || outcome.Stale

		if next, found := timetable.NextLesson(outcome.Lessons, now); found {
			text := render.FormatNextLesson(next, now)
			if stale {
				text = render.StaleBanner + "\n\n" + text
			}
			h.reply(ctx, chatID, text, nil)
			return
		}
	}

	h.reply(ctx, chatID, "На этой и следующей неделе занятий больше нет 🎉", nil)
}
