package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/metrics"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/remote"
	"github.com/Freeeeeet/sirius_schedule/internal/timetable"
)

// CacheStore локальный кеш расписания по ключу недели
type CacheStore interface {
	GetWeek(ctx context.Context, weekID string) ([]model.Lesson, error)
	ReplaceWeek(ctx context.Context, weekID string, lessons []model.Lesson) error
}

// Fetcher загружает расписание недели из API
type Fetcher interface {
	FetchSchedule(ctx context.Context, entity model.Entity, weekOffset int) ([]model.Lesson, error)
}

// OnlineChecker текущее состояние связи
type OnlineChecker interface {
	IsOnline() bool
}

// Сообщения пользователю
const (
	MsgNoNetworkNoCache = "Нет подключения к сети и нет данных в кеше"
	MsgNoCache          = "Нет данных в кеше"
	MsgEntityMissing    = "Номер группы не указан."
	msgAPIError         = "Ошибка API: %d - %s"
	msgNetworkError     = "Сетевая ошибка или ошибка данных: %s"
)

// DefaultVolatileWeeks недели, которые обновляются при каждом запросе при наличии сети
var DefaultVolatileWeeks = []int{0, 1}

// ScheduleService решает для пары (субъект, неделя), отдать кеш или идти в сеть,
// пишет свежие данные в кеш и при сбоях откатывается на устаревший кеш.
type ScheduleService struct {
	cache    CacheStore
	fetcher  Fetcher
	online   OnlineChecker
	volatile map[int]struct{}
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewScheduleService volatileWeeks=nil означает DefaultVolatileWeeks, пустой список отключает обязательный запрос
func NewScheduleService(
	cache CacheStore,
	fetcher Fetcher,
	online OnlineChecker,
	volatileWeeks []int,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ScheduleService {
	if volatileWeeks == nil {
		volatileWeeks = DefaultVolatileWeeks
	}
	volatile := make(map[int]struct{}, len(volatileWeeks))
	for _, w := range volatileWeeks {
		volatile[w] = struct{}{}
	}

	return &ScheduleService{
		cache:    cache,
		fetcher:  fetcher,
		online:   online,
		volatile: volatile,
		metrics:  m,
		logger:   logger,
	}
}

// IsOnline текущее состояние связи, которым пользуется сервис
func (s *ScheduleService) IsOnline() bool {
	return s.online.IsOnline()
}

// Resolve запускает новую последовательность состояний для (entity, weekOffset).
// Канал получает Loading, затем ровно одно терминальное состояние, и закрывается.
// Отмена ctx прекращает доставку, но начатая запись в кеш доводится до конца.
func (s *ScheduleService) Resolve(ctx context.Context, entity model.Entity, weekOffset int, force bool) <-chan model.FetchOutcome {
	out := make(chan model.FetchOutcome, 2)

	go func() {
		defer close(out)
		s.resolve(ctx, entity, weekOffset, force, out)
	}()

	return out
}

// ResolveTerminal выполняет Resolve и возвращает терминальное состояние.
// ok=false если ctx отменён до получения результата.
func (s *ScheduleService) ResolveTerminal(ctx context.Context, entity model.Entity, weekOffset int, force bool) (model.FetchOutcome, bool) {
	return Terminal(s.Resolve(ctx, entity, weekOffset, force))
}

// Terminal вычитывает последовательность до конца и возвращает терминальное состояние
func Terminal(ch <-chan model.FetchOutcome) (model.FetchOutcome, bool) {
	var (
		last model.FetchOutcome
		ok   bool
	)
	for outcome := range ch {
		if outcome.IsTerminal() {
			last, ok = outcome, true
		}
	}
	return last, ok
}

func (s *ScheduleService) resolve(ctx context.Context, entity model.Entity, weekOffset int, force bool, out chan<- model.FetchOutcome) {
	weekID := entity.WeekID(weekOffset)
	log := s.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("week_id", weekID),
		zap.Int("week_offset", weekOffset),
		zap.Bool("force", force),
	)

	emit := func(outcome model.FetchOutcome) {
		if ctx.Err() != nil {
			log.Debug("resolve delivery dropped", zap.String("outcome", outcome.String()))
			return
		}
		out <- outcome
	}

	emit(model.Loading())

	// ввод-вывод не прерывается отменой подписчика, время ограничено таймаутом клиента
	ioCtx := context.WithoutCancel(ctx)

	var result model.FetchOutcome
	defer func() {
		if r := recover(); r != nil {
			log.Error("resolve panicked", zap.Any("panic", r))
			result = s.fallback(ioCtx, weekID, fmt.Errorf("panic: %v", r), log)
		}
		s.metrics.ObserveResolve(result)
		log.Debug("resolve finished", zap.String("outcome", result.String()))
		emit(result)
	}()

	result = s.reconcile(ioCtx, entity, weekOffset, force, log)
}

func (s *ScheduleService) reconcile(ctx context.Context, entity model.Entity, weekOffset int, force bool, log *zap.Logger) model.FetchOutcome {
	if entity.IsZero() {
		return model.Failure(MsgEntityMissing, 0, model.FailureNoData)
	}
	weekID := entity.WeekID(weekOffset)

	cached, err := s.cache.GetWeek(ctx, weekID)
	if err != nil {
		log.Warn("cache read failed, treating as empty", zap.Error(err))
		cached = nil
	}
	cached = timetable.FillPrimaryTeacher(cached)

	online := s.online.IsOnline()
	shouldFetch := online && (force || len(cached) == 0 || s.isVolatile(weekOffset))

	if !shouldFetch {
		if len(cached) > 0 {
			return model.Success(cached, !online)
		}
		if !online {
			return model.Failure(MsgNoNetworkNoCache, 0, model.FailureNoData)
		}
		return model.Failure(MsgNoCache, 0, model.FailureNoData)
	}

	started := time.Now()
	lessons, err := s.fetcher.FetchSchedule(ctx, entity, weekOffset)
	s.metrics.ObserveFetch(time.Since(started), err)

	if err != nil {
		reason := remote.Classify(err)
		log.Warn("fetch failed", zap.String("reason", string(reason)), zap.Error(err))

		if len(cached) > 0 {
			outcome := model.Success(cached, true)
			outcome.Reason = reason
			return outcome
		}

		var apiErr *remote.APIError
		if errors.As(err, &apiErr) {
			return model.Failure(fmt.Sprintf(msgAPIError, apiErr.StatusCode, http.StatusText(apiErr.StatusCode)), apiErr.StatusCode, reason)
		}
		return model.Failure(fmt.Sprintf(msgNetworkError, err), 0, reason)
	}

	fresh := timetable.NormalizeAll(lessons, weekID)
	if err := s.cache.ReplaceWeek(ctx, weekID, fresh); err != nil {
		log.Error("cache write failed", zap.Error(err))
		return s.fallback(ctx, weekID, err, log)
	}

	log.Info("schedule fetched", zap.Int("lessons", len(fresh)))
	return model.Success(fresh, false)
}

// fallback последняя попытка прочитать кеш после непредвиденного сбоя
func (s *ScheduleService) fallback(ctx context.Context, weekID string, cause error, log *zap.Logger) (outcome model.FetchOutcome) {
	failure := model.Failure(fmt.Sprintf(msgNetworkError, cause), 0, model.FailureUnexpected)

	defer func() {
		if r := recover(); r != nil {
			log.Error("fallback cache read panicked", zap.Any("panic", r))
			outcome = failure
		}
	}()

	cached, err := s.cache.GetWeek(ctx, weekID)
	if err != nil {
		log.Warn("fallback cache read failed", zap.Error(err))
		return failure
	}
	if len(cached) == 0 {
		return failure
	}

	outcome = model.Success(timetable.FillPrimaryTeacher(cached), true)
	outcome.Reason = model.FailureUnexpected
	return outcome
}

func (s *ScheduleService) isVolatile(weekOffset int) bool {
	_, ok := s.volatile[weekOffset]
	return ok
}
