package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

// Общие ошибки для обработчиков
var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrNoMessage     = errors.New("no message in callback")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrOffline):
		return "❌ " + service.MsgNoInternet
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}

// reply отправляет текст в чат
func (h *Handlers) reply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) *models.Message {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	msg, err := h.sender.SendMessage(ctx, params)
	if err != nil {
		h.logger.Warn("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return nil
	}
	return msg
}

// sendError логирует ошибку и отвечает пользователю
func (h *Handlers) sendError(ctx context.Context, chatID int64, err error) {
	h.logger.Error("Request failed", zap.Int64("chat_id", chatID), zap.Error(err))
	h.reply(ctx, chatID, ErrorMessage(err), nil)
}

// answerCallback отвечает на callback query (без alert)
func (h *Handlers) answerCallback(ctx context.Context, callbackID, text string) {
	_, err := h.sender.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}

// parseCommand разбирает "/cmd@bot arg1 arg2" -> ("cmd", "arg1 arg2")
func parseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	cmd, args, _ := strings.Cut(text[1:], " ")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

// parseDate разбирает дату dd.mm.yyyy или dd.mm (текущий год)
func parseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation("02.01.2006", raw, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("02.01", raw, now.Location()); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", raw, ErrInvalidFormat)
}

// parseToggle разбирает "on 30" / "off" -> (enabled, minutes)
func parseToggle(args string) (bool, int, error) {
	fields := strings.Fields(strings.ToLower(args))
	if len(fields) == 0 || len(fields) > 2 {
		return false, 0, ErrInvalidFormat
	}

	var enabled bool
	switch fields[0] {
	case "on", "вкл":
		enabled = true
	case "off", "выкл":
		enabled = false
	default:
		return false, 0, ErrInvalidFormat
	}

	minutes := 0
	if len(fields) == 2 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n <= 0 {
			return false, 0, ErrInvalidFormat
		}
		minutes = n
	}
	return enabled, minutes, nil
}
