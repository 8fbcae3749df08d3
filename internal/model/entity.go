package model

import (
	"errors"
	"fmt"
	"strings"
)

// EntityKind тип субъекта расписания
type EntityKind int

const (
	EntityGroup EntityKind = iota
	EntityTeacher
)

func (k EntityKind) String() string {
	switch k {
	case EntityGroup:
		return "group"
	case EntityTeacher:
		return "teacher"
	default:
		return "unknown"
	}
}

// GroupPrefixes зарезервированные префиксы имён групп
var GroupPrefixes = []string{"К", "И"}

// ErrEmptyEntity пустой идентификатор группы/преподавателя
var ErrEmptyEntity = errors.New("entity identifier is empty")

// Entity группа или преподаватель, выбранные пользователем.
// Тип определяется один раз при выборе и дальше не угадывается по строке.
type Entity struct {
	Kind EntityKind
	ID   string
}

// Group создаёт субъект-группу
func Group(name string) Entity {
	return Entity{Kind: EntityGroup, ID: name}
}

// TeacherEntity создаёт субъект-преподавателя
func TeacherEntity(id string) Entity {
	return Entity{Kind: EntityTeacher, ID: id}
}

// ParseEntity разбирает сохранённый ключ: префикс группы -> группа, иначе id преподавателя
func ParseEntity(raw string) (Entity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entity{}, ErrEmptyEntity
	}
	for _, prefix := range GroupPrefixes {
		if strings.HasPrefix(raw, prefix) {
			return Group(raw), nil
		}
	}
	return TeacherEntity(raw), nil
}

// IsZero true если субъект не выбран
func (e Entity) IsZero() bool {
	return e.ID == ""
}

// Key строка для хранения в настройках (обратима через ParseEntity)
func (e Entity) Key() string {
	return e.ID
}

// WeekID составной ключ кеша: "К20-1_offset0" или "teacher_42_offset1"
func (e Entity) WeekID(weekOffset int) string {
	if e.Kind == EntityTeacher {
		return fmt.Sprintf("teacher_%s_offset%d", e.ID, weekOffset)
	}
	return fmt.Sprintf("%s_offset%d", e.ID, weekOffset)
}

func (e Entity) String() string {
	return e.Kind.String() + ":" + e.ID
}
