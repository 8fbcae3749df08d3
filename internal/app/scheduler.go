package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/sirius_schedule/internal/metrics"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/timetable"
)

// ScheduleResolver выполняет resolve до терминального состояния
type ScheduleResolver interface {
	ResolveTerminal(ctx context.Context, entity model.Entity, weekOffset int, force bool) (model.FetchOutcome, bool)
}

// WeekReader чтение кеша недели
type WeekReader interface {
	GetWeek(ctx context.Context, weekID string) ([]model.Lesson, error)
}

// RefreshPreferences настройки чатов для фоновых задач
type RefreshPreferences interface {
	ListWithEntity(ctx context.Context) ([]*model.Preferences, error)
	DueForRefresh(ctx context.Context, now time.Time) ([]*model.Preferences, error)
	MarkRefreshed(ctx context.Context, chatID int64, at time.Time) error
	MarkNotified(ctx context.Context, chatID int64, l *model.Lesson) (bool, error)
}

// Notifier доставляет уведомление о ближайшем занятии
type Notifier interface {
	NotifyLesson(ctx context.Context, chatID int64, lesson timetable.UpcomingLesson) error
}

// SchedulerOptions параметры фоновых задач
type SchedulerOptions struct {
	Tick          time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	VolatileWeeks []int
	Location      *time.Location
	Concurrency   int
}

// Результаты фонового обновления для метрик
const (
	RefreshOK    = "ok"
	RefreshStale = "stale"
	RefreshError = "error"
)

// Scheduler управляет фоновыми задачами: автообновление и уведомления
type Scheduler struct {
	resolver ScheduleResolver
	cache    WeekReader
	prefs    RefreshPreferences
	notifier Notifier
	opts     SchedulerOptions
	metrics  *metrics.Metrics
	logger   *zap.Logger
	stopChan chan struct{}

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewScheduler создаёт новый планировщик
func NewScheduler(
	resolver ScheduleResolver,
	cache WeekReader,
	prefs RefreshPreferences,
	notifier Notifier,
	opts SchedulerOptions,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Scheduler {
	if opts.Tick <= 0 {
		opts.Tick = time.Minute
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 1
	}
	if opts.VolatileWeeks == nil {
		opts.VolatileWeeks = []int{0, 1}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}

	loc := opts.Location
	return &Scheduler{
		resolver: resolver,
		cache:    cache,
		prefs:    prefs,
		notifier: notifier,
		opts:     opts,
		metrics:  m,
		logger:   logger,
		stopChan: make(chan struct{}),
		now:      func() time.Time { return time.Now().In(loc) },
		sleep:    sleepContext,
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("tick", s.opts.Tick))

	go s.run(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) run(ctx context.Context) {
	// Первый запуск сразу при старте
	s.Tick(ctx)

	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.stopChan:
			s.logger.Info("Background scheduler stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Background scheduler cancelled")
			return
		}
	}
}

// Tick один проход: обновление расписаний, затем уведомления
func (s *Scheduler) Tick(ctx context.Context) {
	if err := s.RefreshDue(ctx); err != nil {
		s.logger.Error("Failed to refresh schedules", zap.Error(err))
	}
	if err := s.NotifyUpcoming(ctx); err != nil {
		s.logger.Error("Failed to send notifications", zap.Error(err))
	}
}

// RefreshDue обновляет из сети изменчивые недели для чатов, у которых подошёл интервал.
// Каждый субъект обновляется один раз, даже если его смотрят несколько чатов.
func (s *Scheduler) RefreshDue(ctx context.Context) error {
	now := s.now()
	due, err := s.prefs.DueForRefresh(ctx, now)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	byEntity := make(map[model.Entity][]*model.Preferences)
	for _, p := range due {
		entity, ok := p.Entity()
		if !ok {
			continue
		}
		byEntity[entity] = append(byEntity[entity], p)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for entity, chats := range byEntity {
		entity, chats := entity, chats
		g.Go(func() error {
			result := s.refreshEntity(gctx, entity)
			s.metrics.RefreshRun(result)
			if result == RefreshError {
				return nil
			}
			for _, p := range chats {
				if err := s.prefs.MarkRefreshed(gctx, p.ChatID, now); err != nil {
					s.logger.Warn("Failed to mark refreshed", zap.Int64("chat_id", p.ChatID), zap.Error(err))
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// refreshEntity принудительно обновляет изменчивые недели с повтором при сетевых сбоях
func (s *Scheduler) refreshEntity(ctx context.Context, entity model.Entity) string {
	logger := s.logger.With(zap.String("entity", entity.String()))

	result := RefreshError
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		var (
			fresh, stale, failed int
			allTransport         = true
		)

		for _, week := range s.opts.VolatileWeeks {
			outcome, ok := s.resolver.ResolveTerminal(ctx, entity, week, true)
			if !ok {
				return RefreshError
			}

			switch {
			case outcome.IsSuccess() && !outcome.Stale:
				fresh++
			case outcome.IsSuccess():
				stale++
			default:
				failed++
			}
			if !isTransportFailure(outcome) {
				allTransport = false
			}
		}

		switch {
		case failed == 0 && stale == 0:
			result = RefreshOK
		case fresh > 0 || stale > 0:
			result = RefreshStale
		default:
			result = RefreshError
		}

		if !allTransport || attempt == s.opts.RetryAttempts {
			break
		}

		backoff := time.Duration(attempt) * s.opts.RetryBackoff
		logger.Warn("Refresh failed with transport error, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
		)
		if err := s.sleep(ctx, backoff); err != nil {
			return RefreshError
		}
	}

	logger.Debug("Background refresh finished", zap.String("result", result))
	return result
}

// isTransportFailure неудача по сети: ошибка или устаревшие данные из-за транспорта
func isTransportFailure(o model.FetchOutcome) bool {
	if o.IsSuccess() && !o.Stale {
		return false
	}
	return o.Reason == model.FailureTransport
}

// NotifyUpcoming уведомляет о ближайшем занятии чаты с включёнными уведомлениями.
// Данные берутся из кеша, без обращения к сети.
func (s *Scheduler) NotifyUpcoming(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}

	list, err := s.prefs.ListWithEntity(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for _, p := range list {
		if !p.NotificationsEnabled {
			continue
		}
		entity, ok := p.Entity()
		if !ok {
			continue
		}

		lessons := s.upcomingLessons(ctx, entity)
		next, ok := timetable.NextLesson(lessons, now)
		if !ok || !timetable.ShouldNotify(next.Start, now, p.NotificationLeadTime) {
			continue
		}

		fresh, err := s.prefs.MarkNotified(ctx, p.ChatID, &next.Lesson)
		if err != nil {
			s.logger.Warn("Failed to mark notification", zap.Int64("chat_id", p.ChatID), zap.Error(err))
			continue
		}
		if !fresh {
			continue
		}

		if err := s.notifier.NotifyLesson(ctx, p.ChatID, next); err != nil {
			s.logger.Warn("Failed to notify", zap.Int64("chat_id", p.ChatID), zap.Error(err))
			continue
		}
		s.metrics.NotificationSent()
		s.logger.Info("Lesson notification sent",
			zap.Int64("chat_id", p.ChatID),
			zap.String("discipline", next.Lesson.Discipline),
			zap.Time("start", next.Start),
		)
	}
	return nil
}

// upcomingLessons текущая и следующая неделя из кеша
func (s *Scheduler) upcomingLessons(ctx context.Context, entity model.Entity) []model.Lesson {
	var lessons []model.Lesson
	for _, week := range []int{0, 1} {
		cached, err := s.cache.GetWeek(ctx, entity.WeekID(week))
		if err != nil {
			s.logger.Warn("Cache read failed", zap.String("week_id", entity.WeekID(week)), zap.Error(err))
			continue
		}
		lessons = append(lessons, cached...)
	}
	return lessons
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
