package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/repository/base"
)

// ScheduleCacheRepository локальный кеш расписания по ключу недели.
// Замена недели выполняется одной транзакцией под advisory-блокировкой ключа,
// поэтому читатель видит либо старый, либо новый набор, но не пустоту между ними.
type ScheduleCacheRepository struct {
	*base.Repository
}

func NewScheduleCacheRepository(pool *pgxpool.Pool) *ScheduleCacheRepository {
	return &ScheduleCacheRepository{Repository: base.NewRepository(pool)}
}

// GetWeek читает все занятия недели
func (r *ScheduleCacheRepository) GetWeek(ctx context.Context, weekID string) ([]model.Lesson, error) {
	query := `
		SELECT local_id, date, day_week, start_time, end_time, discipline, group_type,
		       COALESCE(address, ''), COALESCE(classroom, ''), COALESCE(comment, ''), COALESCE(place, ''),
		       teachers, teacher_details, COALESCE(url_online, ''), group_name, number_pair, color,
		       COALESCE(code, ''), week_identifier
		FROM schedule_items
		WHERE week_identifier = $1
		ORDER BY date, start_time, local_id
	`

	rows, err := r.Query(ctx, query, weekID)
	if err != nil {
		return nil, fmt.Errorf("get schedule week: %w", err)
	}
	defer rows.Close()

	lessons := make([]model.Lesson, 0)
	for rows.Next() {
		var (
			l              model.Lesson
			teachersRaw    []byte
			teacherDetails []byte
		)
		err := rows.Scan(
			&l.LocalID,
			&l.Date,
			&l.DayWeek,
			&l.StartTime,
			&l.EndTime,
			&l.Discipline,
			&l.GroupType,
			&l.Address,
			&l.Classroom,
			&l.Comment,
			&l.Place,
			&teachersRaw,
			&teacherDetails,
			&l.URLOnline,
			&l.Group,
			&l.NumberPair,
			&l.Color,
			&l.Code,
			&l.WeekIdentifier,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule item: %w", err)
		}

		if len(teachersRaw) > 0 {
			if err := json.Unmarshal(teachersRaw, &l.Teachers); err != nil {
				return nil, fmt.Errorf("decode teachers: %w", err)
			}
		}
		if len(teacherDetails) > 0 && string(teacherDetails) != "null" {
			var t model.Teacher
			if err := json.Unmarshal(teacherDetails, &t); err != nil {
				return nil, fmt.Errorf("decode teacher details: %w", err)
			}
			l.TeacherDetails = &t
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule items: %w", err)
	}

	return lessons, nil
}

// ReplaceWeek удаляет все занятия недели и вставляет новые (в том числе пустой набор)
func (r *ScheduleCacheRepository) ReplaceWeek(ctx context.Context, weekID string, lessons []model.Lesson) error {
	return r.InTx(ctx, func(tx pgx.Tx) error {
		// сериализуем писателей одного ключа
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, weekID); err != nil {
			return fmt.Errorf("lock week %s: %w", weekID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM schedule_items WHERE week_identifier = $1`, weekID); err != nil {
			return fmt.Errorf("delete schedule week: %w", err)
		}

		if len(lessons) > 0 {
			insert := `
				INSERT INTO schedule_items (
					week_identifier, date, day_week, start_time, end_time, discipline, group_type,
					address, classroom, comment, place, teachers, teacher_details, url_online,
					group_name, number_pair, color, code
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::json, $13::json, $14, $15, $16, $17, $18)
			`

			batch := &pgx.Batch{}
			for i := range lessons {
				l := &lessons[i]
				teachers, err := marshalNullable(l.Teachers, l.Teachers == nil)
				if err != nil {
					return fmt.Errorf("encode teachers: %w", err)
				}
				details, err := marshalNullable(l.TeacherDetails, l.TeacherDetails == nil)
				if err != nil {
					return fmt.Errorf("encode teacher details: %w", err)
				}
				batch.Queue(insert,
					weekID,
					l.Date,
					l.DayWeek,
					l.StartTime,
					l.EndTime,
					l.Discipline,
					l.GroupType,
					nullString(l.Address),
					nullString(l.Classroom),
					nullString(l.Comment),
					nullString(l.Place),
					teachers,
					details,
					nullString(l.URLOnline),
					l.Group,
					l.NumberPair,
					l.Color,
					nullString(l.Code),
				)
			}

			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert schedule items: %w", err)
			}
		}

		upsert := `
			INSERT INTO schedule_weeks (week_identifier, item_count, fetched_at)
			VALUES ($1, $2, now())
			ON CONFLICT (week_identifier) DO UPDATE
			SET item_count = EXCLUDED.item_count, fetched_at = EXCLUDED.fetched_at
		`
		if _, err := tx.Exec(ctx, upsert, weekID, len(lessons)); err != nil {
			return fmt.Errorf("mark week fetched: %w", err)
		}
		return nil
	})
}

// WeekFetchedAt время последней подтверждённой сетью записи недели (nil - ни разу)
func (r *ScheduleCacheRepository) WeekFetchedAt(ctx context.Context, weekID string) (*time.Time, error) {
	var fetchedAt time.Time
	err := r.QueryRow(ctx, `SELECT fetched_at FROM schedule_weeks WHERE week_identifier = $1`, weekID).Scan(&fetchedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get week fetched at: %w", err)
	}
	return &fetchedAt, nil
}

func marshalNullable(v interface{}, isNil bool) (*string, error) {
	if isNil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
