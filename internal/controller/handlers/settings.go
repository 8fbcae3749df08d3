package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/controller/render"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

// handleNotify /notify on [минуты] | off
func (h *Handlers) handleNotify(ctx context.Context, chatID int64, args string) {
	usage := fmt.Sprintf("Использование: /notify on [%d-%d] или /notify off",
		service.MinNotificationLeadTime, service.MaxNotificationLeadTime)

	enabled, lead, err := parseToggle(args)
	if err != nil {
		h.reply(ctx, chatID, usage, nil)
		return
	}

	p, err := h.prefs.SetNotifications(ctx, chatID, enabled, lead)
	if err != nil {
		h.logger.Debug("Invalid notification settings", zap.Error(err))
		h.reply(ctx, chatID, "❌ "+usage, nil)
		return
	}

	if p.NotificationsEnabled {
		h.reply(ctx, chatID, "🔔 Напомню о занятии за "+render.FormatDuration(p.NotificationLeadTime), nil)
		return
	}
	h.reply(ctx, chatID, "🔕 Уведомления выключены", nil)
}

// handleAutoUpdate /autoupdate on [минуты] | off
func (h *Handlers) handleAutoUpdate(ctx context.Context, chatID int64, args string) {
	usage := fmt.Sprintf("Использование: /autoupdate on [%d-%d] или /autoupdate off",
		model.MinAutoUpdateInterval, service.MaxAutoUpdateInterval)

	enabled, interval, err := parseToggle(args)
	if err != nil {
		h.reply(ctx, chatID, usage, nil)
		return
	}

	p, err := h.prefs.SetAutoUpdate(ctx, chatID, enabled, interval)
	if err != nil {
		h.logger.Debug("Invalid auto update settings", zap.Error(err))
		h.reply(ctx, chatID, "❌ "+usage, nil)
		return
	}

	if p.AutoUpdateEnabled {
		h.reply(ctx, chatID, "♻️ Расписание будет обновляться каждые "+render.FormatDuration(p.AutoUpdateInterval), nil)
		return
	}
	h.reply(ctx, chatID, "♻️ Автообновление выключено", nil)
}

// handleTheme /theme light | dark | system
func (h *Handlers) handleTheme(ctx context.Context, chatID int64, args string) {
	raw := strings.ToLower(strings.TrimSpace(args))
	theme := model.ParseTheme(raw)
	if raw == "" || (theme == model.ThemeSystem && raw != string(model.ThemeSystem)) {
		h.reply(ctx, chatID, "Использование: /theme light | dark | system", nil)
		return
	}

	if _, err := h.prefs.SetTheme(ctx, chatID, theme); err != nil {
		h.sendError(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, "🎨 Тема: "+string(theme), nil)
}

// handleSettings /settings
func (h *Handlers) handleSettings(ctx context.Context, chatID int64, _ string) {
	p, err := h.prefs.Get(ctx, chatID)
	if err != nil {
		h.sendError(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, render.FormatPreferences(p), nil)
}
