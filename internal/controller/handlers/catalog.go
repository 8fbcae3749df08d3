package handlers

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/controller/keyboard"
	"github.com/Freeeeeet/sirius_schedule/internal/controller/render"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

// listLimit сколько строк справочника выводить в одном сообщении
const listLimit = 30

// handleGroup /group <название>
func (h *Handlers) handleGroup(ctx context.Context, chatID int64, args string) {
	name := strings.TrimSpace(args)
	if name == "" {
		h.reply(ctx, chatID, "Укажите группу, например: /group К0709-23\nПоиск групп: /groups К07", nil)
		return
	}

	if !looksLikeGroup(name) {
		h.reply(ctx, chatID, "❌ Название группы начинается с "+strings.Join(model.GroupPrefixes, " или ")+
			".\nДля преподавателя используйте /teacher", nil)
		return
	}

	h.selectEntity(ctx, chatID, model.Group(name))
}

// looksLikeGroup префикс группы и за ним цифра: К0709-23
func looksLikeGroup(name string) bool {
	entity, err := model.ParseEntity(name)
	if err != nil || entity.Kind != model.EntityGroup {
		return false
	}
	runes := []rune(entity.ID)
	return len(runes) > 1 && unicode.IsDigit(runes[1])
}

// handleTeacher /teacher <id или фрагмент ФИО>
func (h *Handlers) handleTeacher(ctx context.Context, chatID int64, args string) {
	query := strings.TrimSpace(args)
	if query == "" {
		h.reply(ctx, chatID, "Укажите преподавателя, например: /teacher Иванов", nil)
		return
	}

	teacher, candidates, err := h.catalog.FindTeacher(ctx, query)
	if err != nil {
		// без справочника числовой id принимаем как есть
		if isNumeric(query) {
			h.selectEntity(ctx, chatID, model.TeacherEntity(query))
			return
		}
		h.sendError(ctx, chatID, err)
		return
	}

	switch {
	case teacher != nil:
		h.selectEntity(ctx, chatID, model.TeacherEntity(teacher.ID))
	case len(candidates) == 0:
		h.reply(ctx, chatID, "Преподаватель не найден. Поиск: /teachers Иванов", nil)
	default:
		h.reply(ctx, chatID, render.FormatTeachers(candidates, listLimit)+"\n\nВыберите преподавателя:",
			keyboard.TeacherChoices(candidates))
	}
}

// selectEntity сохраняет выбор и показывает сегодняшний день
func (h *Handlers) selectEntity(ctx context.Context, chatID int64, entity model.Entity) {
	if _, err := h.prefs.SetEntity(ctx, chatID, entity); err != nil {
		h.logger.Warn("Failed to save entity", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	s, _ := h.registry.GetOrCreate(chatID)
	h.newCard(chatID)
	s.SelectEntity(entity)
}

// handleGroups /groups [фрагмент]
func (h *Handlers) handleGroups(ctx context.Context, chatID int64, args string) {
	groups, err := h.catalog.SearchGroups(ctx, args)
	if err != nil {
		h.sendError(ctx, chatID, err)
		return
	}

	text := render.FormatGroups(groups, listLimit)
	if len(groups) > 0 && len(groups) <= listLimit {
		h.reply(ctx, chatID, text, keyboard.GroupChoices(groups))
		return
	}
	h.reply(ctx, chatID, text, nil)
}

// handleTeachers /teachers [фрагмент ФИО]
func (h *Handlers) handleTeachers(ctx context.Context, chatID int64, args string) {
	teachers, err := h.catalog.SearchTeachers(ctx, args)
	if err != nil {
		h.sendError(ctx, chatID, err)
		return
	}
	h.reply(ctx, chatID, render.FormatTeachers(teachers, listLimit), nil)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
