package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/controller/keyboard"
	"github.com/Freeeeeet/sirius_schedule/internal/controller/render"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
	"github.com/Freeeeeet/sirius_schedule/internal/timetable"
)

// Present показывает событие сессии в чате.
// Карточка дня редактируется на месте, пока команда не попросит новую.
func (h *Handlers) Present(ctx context.Context, chatID int64, ev service.Event) {
	switch ev.Kind {
	case service.EventDisplay:
		h.presentDisplay(ctx, chatID, ev)
	case service.EventSuggestRestart:
		h.reply(ctx, chatID, render.RestartSuggestion, nil)
	case service.EventMessage:
		h.reply(ctx, chatID, "ℹ️ "+ev.Message, nil)
	}
}

func (h *Handlers) presentDisplay(ctx context.Context, chatID int64, ev service.Event) {
	switch ev.Outcome.State {
	case model.OutcomeLoading:
		_, err := h.sender.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
		if err != nil {
			h.logger.Debug("Failed to send chat action", zap.Error(err))
		}
	case model.OutcomeSuccess:
		entity := model.Entity{}
		if s, ok := h.registry.Get(chatID); ok {
			entity = s.Snapshot().Entity
		}
		text := render.FormatDay(entity, ev.Date, ev.Day, ev.HasDay, ev.Outcome.Stale)
		h.showCard(ctx, chatID, text, keyboard.ScheduleNavigation())
	case model.OutcomeError:
		h.showCard(ctx, chatID, render.FormatError(ev.Outcome.Message), keyboard.RefreshOnly())
	}
}

// showCard редактирует текущую карточку или отправляет новую
func (h *Handlers) showCard(ctx context.Context, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	h.cardsMu.Lock()
	messageID, ok := h.cards[chatID]
	h.cardsMu.Unlock()

	if ok {
		_, err := h.sender.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        text,
			ReplyMarkup: markup,
		})
		if err == nil || isNotModified(err) {
			return
		}
		h.logger.Debug("Failed to edit card, sending new one", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	msg := h.reply(ctx, chatID, text, markup)
	if msg == nil {
		return
	}
	h.cardsMu.Lock()
	h.cards[chatID] = msg.ID
	h.cardsMu.Unlock()
}

// newCard следующая карточка дня уйдёт отдельным сообщением
func (h *Handlers) newCard(chatID int64) {
	h.cardsMu.Lock()
	defer h.cardsMu.Unlock()
	delete(h.cards, chatID)
}

// attachCard карточкой становится сообщение, на кнопку которого нажали
func (h *Handlers) attachCard(chatID int64, messageID int) {
	h.cardsMu.Lock()
	defer h.cardsMu.Unlock()
	h.cards[chatID] = messageID
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}

// NotifyLesson отправляет напоминание о ближайшем занятии
func (h *Handlers) NotifyLesson(ctx context.Context, chatID int64, next timetable.UpcomingLesson) error {
	_, err := h.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   render.FormatNotification(next, h.now()),
	})
	return err
}
