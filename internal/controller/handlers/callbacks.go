package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/controller/keyboard"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

// HandleCallbackQuery маршрутизирует нажатия на inline кнопки
func (h *Handlers) HandleCallbackQuery(ctx context.Context, _ *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	msg := callback.Message.Message
	if msg == nil {
		h.answerCallback(ctx, callback.ID, ErrorMessage(ErrNoMessage))
		return
	}
	chatID := msg.Chat.ID
	data := callback.Data

	h.logger.Debug("Callback received", zap.Int64("chat_id", chatID), zap.String("data", data))

	switch {
	case data == keyboard.DayPrev, data == keyboard.DayNext, data == keyboard.DayToday, data == keyboard.DayRefresh:
		h.answerCallback(ctx, callback.ID, "")
		s, ok := h.requireEntity(ctx, chatID)
		if !ok {
			return
		}
		h.attachCard(chatID, msg.ID)
		switch data {
		case keyboard.DayPrev:
			s.PreviousDay()
		case keyboard.DayNext:
			s.NextDay()
		case keyboard.DayToday:
			s.SelectDate(h.now(), false, false)
		case keyboard.DayRefresh:
			s.Refresh()
		}

	case data == keyboard.WeekImage:
		h.answerCallback(ctx, callback.ID, "")
		h.handleWeek(ctx, chatID, "")

	case strings.HasPrefix(data, keyboard.PickTeacher):
		id := strings.TrimPrefix(data, keyboard.PickTeacher)
		if !isNumeric(id) {
			h.answerCallback(ctx, callback.ID, ErrorMessage(ErrInvalidFormat))
			return
		}
		h.answerCallback(ctx, callback.ID, "")
		h.selectEntity(ctx, chatID, model.TeacherEntity(id))

	case strings.HasPrefix(data, keyboard.PickGroup):
		h.answerCallback(ctx, callback.ID, "")
		h.handleGroup(ctx, chatID, strings.TrimPrefix(data, keyboard.PickGroup))

	default:
		h.logger.Warn("Unknown callback data", zap.String("data", data))
		h.answerCallback(ctx, callback.ID, ErrorMessage(ErrInvalidFormat))
	}
}
