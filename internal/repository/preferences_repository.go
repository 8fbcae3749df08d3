package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/repository/base"
)

type PreferencesRepository struct {
	*base.Repository
}

func NewPreferencesRepository(pool *pgxpool.Pool) *PreferencesRepository {
	return &PreferencesRepository{Repository: base.NewRepository(pool)}
}

const preferencesColumns = `chat_id, entity_key, theme, auto_update_enabled, auto_update_interval,
	notifications_enabled, notification_lead_time, first_launch_completed, last_refresh_at,
	created_at, updated_at`

// Get получает настройки чата
func (r *PreferencesRepository) Get(ctx context.Context, chatID int64) (*model.Preferences, error) {
	query := `SELECT ` + preferencesColumns + ` FROM chat_preferences WHERE chat_id = $1`

	p, err := scanPreferences(r.QueryRow(ctx, query, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // настройки ещё не сохранялись
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

// Upsert создаёт или обновляет настройки чата
func (r *PreferencesRepository) Upsert(ctx context.Context, p *model.Preferences) error {
	query := `
		INSERT INTO chat_preferences (
			chat_id, entity_key, theme, auto_update_enabled, auto_update_interval,
			notifications_enabled, notification_lead_time, first_launch_completed, last_refresh_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (chat_id) DO UPDATE SET
			entity_key = EXCLUDED.entity_key,
			theme = EXCLUDED.theme,
			auto_update_enabled = EXCLUDED.auto_update_enabled,
			auto_update_interval = EXCLUDED.auto_update_interval,
			notifications_enabled = EXCLUDED.notifications_enabled,
			notification_lead_time = EXCLUDED.notification_lead_time,
			first_launch_completed = EXCLUDED.first_launch_completed,
			last_refresh_at = EXCLUDED.last_refresh_at,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		p.ChatID,
		p.EntityKey,
		string(p.Theme),
		p.AutoUpdateEnabled,
		p.AutoUpdateInterval,
		p.NotificationsEnabled,
		p.NotificationLeadTime,
		p.FirstLaunchCompleted,
		p.LastRefreshAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

// ListWithEntity получает все чаты с выбранной группой или преподавателем
func (r *PreferencesRepository) ListWithEntity(ctx context.Context) ([]*model.Preferences, error) {
	query := `SELECT ` + preferencesColumns + ` FROM chat_preferences WHERE entity_key <> '' ORDER BY chat_id`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var result []*model.Preferences
	for rows.Next() {
		p, err := scanPreferences(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preferences: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}
	return result, nil
}

// MarkRefreshed запоминает время последнего фонового обновления
func (r *PreferencesRepository) MarkRefreshed(ctx context.Context, chatID int64, at time.Time) error {
	query := `UPDATE chat_preferences SET last_refresh_at = $2, updated_at = now() WHERE chat_id = $1`
	if _, err := r.ExecAffected(ctx, query, chatID, at); err != nil {
		return fmt.Errorf("mark refreshed: %w", err)
	}
	return nil
}

// MarkNotificationSent записывает отправленное уведомление.
// Возвращает false если такое уведомление уже отправлялось.
func (r *PreferencesRepository) MarkNotificationSent(ctx context.Context, chatID int64, key uuid.UUID) (bool, error) {
	query := `
		INSERT INTO sent_notifications (chat_id, notification_key)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	affected, err := r.ExecAffected(ctx, query, chatID, key)
	if err != nil {
		return false, fmt.Errorf("mark notification sent: %w", err)
	}
	return affected > 0, nil
}

// PurgeNotifications удаляет записи об уведомлениях старше before
func (r *PreferencesRepository) PurgeNotifications(ctx context.Context, before time.Time) (int64, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM sent_notifications WHERE sent_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return affected, nil
}

func scanPreferences(row pgx.Row) (*model.Preferences, error) {
	var (
		p     model.Preferences
		theme string
	)
	err := row.Scan(
		&p.ChatID,
		&p.EntityKey,
		&theme,
		&p.AutoUpdateEnabled,
		&p.AutoUpdateInterval,
		&p.NotificationsEnabled,
		&p.NotificationLeadTime,
		&p.FirstLaunchCompleted,
		&p.LastRefreshAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Theme = model.ParseTheme(theme)
	return &p, nil
}
