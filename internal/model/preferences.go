package model

import "time"

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// ParseTheme разбирает тему, неизвестное значение -> system
func ParseTheme(s string) Theme {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s)
	default:
		return ThemeSystem
	}
}

const (
	DefaultAutoUpdateInterval   = 30 // минуты
	MinAutoUpdateInterval       = 15
	DefaultNotificationLeadTime = 15 // минуты
)

// Preferences настройки чата
type Preferences struct {
	ChatID               int64      `json:"chat_id"`
	EntityKey            string     `json:"entity_key"` // выбранная группа или id преподавателя
	Theme                Theme      `json:"theme"`
	AutoUpdateEnabled    bool       `json:"auto_update_enabled"`
	AutoUpdateInterval   int        `json:"auto_update_interval"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	NotificationLeadTime int        `json:"notification_lead_time"`
	FirstLaunchCompleted bool       `json:"first_launch_completed"`
	LastRefreshAt        *time.Time `json:"last_refresh_at"` // указатель - может быть nil
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// DefaultPreferences настройки нового чата
func DefaultPreferences(chatID int64) *Preferences {
	return &Preferences{
		ChatID:               chatID,
		Theme:                ThemeSystem,
		AutoUpdateEnabled:    true,
		AutoUpdateInterval:   DefaultAutoUpdateInterval,
		NotificationsEnabled: false,
		NotificationLeadTime: DefaultNotificationLeadTime,
	}
}

// RefreshInterval интервал автообновления с учётом минимума
func (p *Preferences) RefreshInterval() time.Duration {
	minutes := p.AutoUpdateInterval
	if minutes < MinAutoUpdateInterval {
		minutes = MinAutoUpdateInterval
	}
	return time.Duration(minutes) * time.Minute
}

// Entity выбранный субъект расписания (ok=false если не выбран)
func (p *Preferences) Entity() (Entity, bool) {
	e, err := ParseEntity(p.EntityKey)
	if err != nil {
		return Entity{}, false
	}
	return e, true
}
