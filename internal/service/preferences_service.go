package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

// PreferencesStore хранилище настроек чатов
type PreferencesStore interface {
	Get(ctx context.Context, chatID int64) (*model.Preferences, error)
	Upsert(ctx context.Context, p *model.Preferences) error
	ListWithEntity(ctx context.Context) ([]*model.Preferences, error)
	MarkRefreshed(ctx context.Context, chatID int64, at time.Time) error
	MarkNotificationSent(ctx context.Context, chatID int64, key uuid.UUID) (bool, error)
}

const (
	MaxAutoUpdateInterval   = 24 * 60
	MinNotificationLeadTime = 1
	MaxNotificationLeadTime = 120
)

// пространство имён ключей уведомлений
var notificationNamespace = uuid.MustParse("6f1c1a52-3f0e-4c55-9d43-5b7c8a0e2d11")

type PreferencesService struct {
	store  PreferencesStore
	logger *zap.Logger
}

func NewPreferencesService(store PreferencesStore, logger *zap.Logger) *PreferencesService {
	return &PreferencesService{store: store, logger: logger}
}

// Get настройки чата; для нового чата значения по умолчанию
func (s *PreferencesService) Get(ctx context.Context, chatID int64) (*model.Preferences, error) {
	p, err := s.store.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	if p == nil {
		return model.DefaultPreferences(chatID), nil
	}
	return p, nil
}

// SetEntity сохраняет выбранную группу или преподавателя
func (s *PreferencesService) SetEntity(ctx context.Context, chatID int64, entity model.Entity) (*model.Preferences, error) {
	return s.update(ctx, chatID, func(p *model.Preferences) error {
		p.EntityKey = entity.Key()
		return nil
	})
}

// SetTheme сохраняет тему
func (s *PreferencesService) SetTheme(ctx context.Context, chatID int64, theme model.Theme) (*model.Preferences, error) {
	return s.update(ctx, chatID, func(p *model.Preferences) error {
		p.Theme = theme
		return nil
	})
}

// SetAutoUpdate включает/выключает автообновление; interval=0 оставляет текущий
func (s *PreferencesService) SetAutoUpdate(ctx context.Context, chatID int64, enabled bool, interval int) (*model.Preferences, error) {
	if interval != 0 && (interval < model.MinAutoUpdateInterval || interval > MaxAutoUpdateInterval) {
		return nil, fmt.Errorf("auto update interval must be between %d and %d minutes", model.MinAutoUpdateInterval, MaxAutoUpdateInterval)
	}
	return s.update(ctx, chatID, func(p *model.Preferences) error {
		p.AutoUpdateEnabled = enabled
		if interval != 0 {
			p.AutoUpdateInterval = interval
		}
		return nil
	})
}

// SetNotifications включает/выключает уведомления; leadTime=0 оставляет текущее
func (s *PreferencesService) SetNotifications(ctx context.Context, chatID int64, enabled bool, leadTime int) (*model.Preferences, error) {
	if leadTime != 0 && (leadTime < MinNotificationLeadTime || leadTime > MaxNotificationLeadTime) {
		return nil, fmt.Errorf("notification lead time must be between %d and %d minutes", MinNotificationLeadTime, MaxNotificationLeadTime)
	}
	return s.update(ctx, chatID, func(p *model.Preferences) error {
		p.NotificationsEnabled = enabled
		if leadTime != 0 {
			p.NotificationLeadTime = leadTime
		}
		return nil
	})
}

// CompleteFirstLaunch отмечает, что приветствие показано.
// Возвращает true, если это первый запуск.
func (s *PreferencesService) CompleteFirstLaunch(ctx context.Context, chatID int64) (bool, error) {
	first := false
	_, err := s.update(ctx, chatID, func(p *model.Preferences) error {
		first = !p.FirstLaunchCompleted
		p.FirstLaunchCompleted = true
		return nil
	})
	return first, err
}

// ListWithEntity все чаты с выбранным субъектом
func (s *PreferencesService) ListWithEntity(ctx context.Context) ([]*model.Preferences, error) {
	list, err := s.store.ListWithEntity(ctx)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return list, nil
}

// DueForRefresh чаты, у которых пора обновить расписание
func (s *PreferencesService) DueForRefresh(ctx context.Context, now time.Time) ([]*model.Preferences, error) {
	list, err := s.ListWithEntity(ctx)
	if err != nil {
		return nil, err
	}

	var due []*model.Preferences
	for _, p := range list {
		if !p.AutoUpdateEnabled {
			continue
		}
		if p.LastRefreshAt == nil || now.Sub(*p.LastRefreshAt) >= p.RefreshInterval() {
			due = append(due, p)
		}
	}
	return due, nil
}

// MarkRefreshed запоминает время фонового обновления
func (s *PreferencesService) MarkRefreshed(ctx context.Context, chatID int64, at time.Time) error {
	return s.store.MarkRefreshed(ctx, chatID, at)
}

// NotificationKey детерминированный ключ уведомления о занятии
func NotificationKey(chatID int64, l *model.Lesson) uuid.UUID {
	return uuid.NewSHA1(notificationNamespace, []byte(fmt.Sprintf("%d|%s", chatID, l.DedupKey())))
}

// MarkNotified записывает уведомление; false если о занятии уже сообщали
func (s *PreferencesService) MarkNotified(ctx context.Context, chatID int64, l *model.Lesson) (bool, error) {
	fresh, err := s.store.MarkNotificationSent(ctx, chatID, NotificationKey(chatID, l))
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	return fresh, nil
}

func (s *PreferencesService) update(ctx context.Context, chatID int64, fn func(p *model.Preferences) error) (*model.Preferences, error) {
	p, err := s.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}

	s.logger.Debug("Preferences updated", zap.Int64("chat_id", chatID))
	return p, nil
}
