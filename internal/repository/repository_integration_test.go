package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/sirius_schedule/internal/app"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/repository"
)

// openTestPool подключается к TEST_DB_DSN и применяет миграции; без переменной тест пропускается
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migrator, err := app.NewMigrator(pool, "../../migrations", zap.NewNop())
	require.NoError(t, err)
	defer migrator.Close()
	require.NoError(t, migrator.Run(ctx))

	return pool
}

func testWeekID(t *testing.T) string {
	return "К-test-" + uuid.NewString() + "_offset0"
}

func TestScheduleCacheRepository_ReplaceAndGet(t *testing.T) {
	pool := openTestPool(t)
	repo := repository.NewScheduleCacheRepository(pool)
	ctx := context.Background()
	weekID := testWeekID(t)

	t.Cleanup(func() { _ = repo.ReplaceWeek(context.Background(), weekID, nil) })

	teacher := model.Teacher{ID: "7", LastName: "Иванов", FirstName: "Иван", FIO: "Иванов Иван"}
	lessons := []model.Lesson{
		{
			Date: "02.09.2024", StartTime: "10:20", EndTime: "11:40", Discipline: "Физика",
			Teachers: model.TeacherMap{{Key: "7", Teacher: teacher}}, TeacherDetails: &teacher,
			NumberPair: 2, Color: model.DefaultLessonColor, WeekIdentifier: weekID,
		},
		{
			Date: "02.09.2024", StartTime: "08:45", EndTime: "10:05", Discipline: "Математика",
			Classroom: "101", NumberPair: 1, Color: model.DefaultLessonColor, WeekIdentifier: weekID,
		},
	}

	require.NoError(t, repo.ReplaceWeek(ctx, weekID, lessons))

	got, err := repo.GetWeek(ctx, weekID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Математика", got[0].Discipline, "сортировка по времени начала")
	assert.Equal(t, "101", got[0].Classroom)
	require.NotNil(t, got[1].TeacherDetails)
	assert.Equal(t, "Иванов", got[1].TeacherDetails.LastName)
	assert.Equal(t, "7", got[1].Teachers[0].Key)

	fetchedAt, err := repo.WeekFetchedAt(ctx, weekID)
	require.NoError(t, err)
	require.NotNil(t, fetchedAt)
}

func TestScheduleCacheRepository_ReadersNeverSeePartialWeek(t *testing.T) {
	pool := openTestPool(t)
	repo := repository.NewScheduleCacheRepository(pool)
	ctx := context.Background()
	weekID := testWeekID(t)

	t.Cleanup(func() { _ = repo.ReplaceWeek(context.Background(), weekID, nil) })

	const perWeek = 6
	week := func(round int) []model.Lesson {
		lessons := make([]model.Lesson, 0, perWeek)
		for pair := 1; pair <= perWeek; pair++ {
			lessons = append(lessons, model.Lesson{
				Date: "02.09.2024", StartTime: fmt.Sprintf("%02d:00", 7+pair), EndTime: fmt.Sprintf("%02d:50", 7+pair),
				Discipline: fmt.Sprintf("Предмет %d/%d", round, pair), NumberPair: pair,
				Color: model.DefaultLessonColor, WeekIdentifier: weekID,
			})
		}
		return lessons
	}
	require.NoError(t, repo.ReplaceWeek(ctx, weekID, week(0)))

	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(done)
		for round := 1; round <= 30; round++ {
			if err := repo.ReplaceWeek(gctx, weekID, week(round)); err != nil {
				return err
			}
		}
		return nil
	})

	for i := 0; i < 4; i++ {
		g.Go(func() error {
			for {
				select {
				case <-done:
					return nil
				default:
				}
				got, err := repo.GetWeek(gctx, weekID)
				if err != nil {
					return err
				}
				if len(got) != perWeek {
					return fmt.Errorf("read %d lessons, want %d", len(got), perWeek)
				}
			}
		})
	}

	require.NoError(t, g.Wait())
}

func TestScheduleCacheRepository_ReplaceWithEmpty(t *testing.T) {
	pool := openTestPool(t)
	repo := repository.NewScheduleCacheRepository(pool)
	ctx := context.Background()
	weekID := testWeekID(t)

	require.NoError(t, repo.ReplaceWeek(ctx, weekID, []model.Lesson{{Date: "03.09.2024", Discipline: "История"}}))
	require.NoError(t, repo.ReplaceWeek(ctx, weekID, []model.Lesson{}))

	got, err := repo.GetWeek(ctx, weekID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	// пустая неделя подтверждена сетью
	fetchedAt, err := repo.WeekFetchedAt(ctx, weekID)
	require.NoError(t, err)
	assert.NotNil(t, fetchedAt)
}

func TestScheduleCacheRepository_UnknownWeek(t *testing.T) {
	pool := openTestPool(t)
	repo := repository.NewScheduleCacheRepository(pool)

	got, err := repo.GetWeek(context.Background(), testWeekID(t))
	require.NoError(t, err)
	assert.Empty(t, got)

	fetchedAt, err := repo.WeekFetchedAt(context.Background(), testWeekID(t))
	require.NoError(t, err)
	assert.Nil(t, fetchedAt)
}

func TestPreferencesRepository_Upsert(t *testing.T) {
	pool := openTestPool(t)
	repo := repository.NewPreferencesRepository(pool)
	ctx := context.Background()
	chatID := time.Now().UnixNano()

	got, err := repo.Get(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, got)

	prefs := model.DefaultPreferences(chatID)
	prefs.EntityKey = "К0709-23"
	prefs.Theme = model.ThemeDark
	require.NoError(t, repo.Upsert(ctx, prefs))

	got, err = repo.Get(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "К0709-23", got.EntityKey)
	assert.Equal(t, model.ThemeDark, got.Theme)
	assert.True(t, got.AutoUpdateEnabled)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkRefreshed(ctx, chatID, now))
	got, err = repo.Get(ctx, chatID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRefreshAt)
	assert.True(t, got.LastRefreshAt.Equal(now))

	list, err := repo.ListWithEntity(ctx)
	require.NoError(t, err)
	found := false
	for _, p := range list {
		if p.ChatID == chatID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPreferencesRepository_NotificationDedup(t *testing.T) {
	pool := openTestPool(t)
	repo := repository.NewPreferencesRepository(pool)
	ctx := context.Background()
	chatID := time.Now().UnixNano()
	key := uuid.New()

	first, err := repo.MarkNotificationSent(ctx, chatID, key)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.MarkNotificationSent(ctx, chatID, key)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestPreferencesRepository_PurgeNotifications(t *testing.T) {
	pool := openTestPool(t)
	repo := repository.NewPreferencesRepository(pool)
	ctx := context.Background()
	chatID := time.Now().UnixNano()
	key := uuid.New()

	_, err := repo.MarkNotificationSent(ctx, chatID, key)
	require.NoError(t, err)

	// свежая запись не удаляется
	_, err = repo.PurgeNotifications(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	again, err := repo.MarkNotificationSent(ctx, chatID, key)
	require.NoError(t, err)
	assert.False(t, again)

	deleted, err := repo.PurgeNotifications(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	again, err = repo.MarkNotificationSent(ctx, chatID, key)
	require.NoError(t, err)
	assert.True(t, again)
}
