package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/metrics"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/timetable"
)

// Resolver источник последовательностей состояний расписания
type Resolver interface {
	Resolve(ctx context.Context, entity model.Entity, weekOffset int, force bool) <-chan model.FetchOutcome
	IsOnline() bool
}

// Phase состояние сессии относительно связи
type Phase int

const (
	PhaseOffline Phase = iota
	PhaseOnlineFresh
	PhaseOnlinePendingRestartAck
)

func (p Phase) String() string {
	switch p {
	case PhaseOffline:
		return "offline"
	case PhaseOnlineFresh:
		return "online_fresh"
	case PhaseOnlinePendingRestartAck:
		return "online_pending_restart_ack"
	default:
		return "unknown"
	}
}

// EventKind тип события сессии
type EventKind int

const (
	// EventDisplay изменилось отображаемое состояние (загрузка, данные, ошибка, флаг устаревания)
	EventDisplay EventKind = iota
	// EventSuggestRestart связь вернулась, стоит перезапустить сессию
	EventSuggestRestart
	// EventMessage разовое сообщение пользователю
	EventMessage
)

// Event событие для потребителя сессии
type Event struct {
	Kind    EventKind
	Outcome model.FetchOutcome
	Date    time.Time
	Day     model.DailySchedule
	HasDay  bool
	Message string
}

// Сообщения сессии
const (
	MsgRefreshed         = "Данные успешно обновлены!"
	MsgStaleAfterRefresh = "Не удалось получить свежие данные. Показаны последние доступные."
	MsgSelectEntity      = "Для загрузки расписания выберите группу."
	msgErrorOverContent  = "Ошибка: %s. Показаны сохраненные данные."
)

const sessionEventBuffer = 64

// SessionOptions зависимости сессии
type SessionOptions struct {
	Location *time.Location
	Now      func() time.Time
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// SessionSnapshot срез состояния сессии
type SessionSnapshot struct {
	Entity       model.Entity
	SelectedDate time.Time
	WeekOffset   int
	Display      model.FetchOutcome
	Phase        Phase
	WasOffline   bool
	RestartShown bool
}

// Session сессия просмотра расписания одного пользователя.
// Владеет флагами wasOffline и restartShown, выбранной датой и отображаемым состоянием.
type Session struct {
	mu       sync.Mutex
	resolver Resolver
	loc      *time.Location
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	events chan Event
	closed bool

	entity        model.Entity
	selectedDate  time.Time
	weekOffset    int
	display       model.FetchOutcome
	displayWeek   int
	displayEntity model.Entity
	days          []model.DailySchedule

	online       bool
	wasOffline   bool
	restartShown bool

	generation  uint64
	cancelFetch context.CancelFunc
}

type fetchRequest struct {
	generation   uint64
	week         int
	force        bool
	network      bool
	previous     model.FetchOutcome
	previousWeek int
	previousOf   model.Entity
}

func NewSession(ctx context.Context, resolver Resolver, opts SessionOptions) *Session {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	online := resolver.IsOnline()
	s := &Session{
		resolver:   resolver,
		loc:        opts.Location,
		now:        opts.Now,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		events:     make(chan Event, sessionEventBuffer),
		display:    model.Loading(),
		online:     online,
		wasOffline: !online,
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.selectedDate = s.today()
	return s
}

// Events канал событий; закрывается в Close
func (s *Session) Events() <-chan Event {
	return s.events
}

// Close останавливает загрузку и закрывает канал событий
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
	close(s.events)
}

// Phase текущая фаза сессии
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase()
}

func (s *Session) phase() Phase {
	switch {
	case !s.online:
		return PhaseOffline
	case s.restartShown:
		return PhaseOnlinePendingRestartAck
	default:
		return PhaseOnlineFresh
	}
}

// Snapshot копия состояния
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionSnapshot{
		Entity:       s.entity,
		SelectedDate: s.selectedDate,
		WeekOffset:   s.weekOffset,
		Display:      s.display,
		Phase:        s.phase(),
		WasOffline:   s.wasOffline,
		RestartShown: s.restartShown,
	}
}

// CurrentDay расписание выбранного дня из отображаемых данных
func (s *Session) CurrentDay() (time.Time, model.DailySchedule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := timetable.FindDay(s.days, s.selectedDate)
	return s.selectedDate, day, ok
}

// Days все дни отображаемой недели
func (s *Session) Days() []model.DailySchedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.DailySchedule, len(s.days))
	copy(result, s.days)
	return result
}

// SelectEntity выбирает группу или преподавателя.
// Смена субъекта сбрасывает флаги связи и загружает сегодняшний день из сети.
func (s *Session) SelectEntity(entity model.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	changed := entity != s.entity
	if changed {
		s.entity = entity
		s.online = s.resolver.IsOnline()
		s.wasOffline = !s.online
		s.restartShown = false
		s.stopFetch()
		s.logger.Info("session entity selected", zap.String("entity", entity.String()))
	}

	if entity.IsZero() {
		s.setDisplay(model.Failure(MsgEntityMissing, 0, model.FailureNoData), s.weekOffset)
		return
	}

	needFetch := changed || !s.display.IsSuccess() || len(s.display.Lessons) == 0
	if !needFetch {
		s.publishDisplay()
		return
	}

	s.startFetch(s.today(), true, false)
}

// SelectDate выбирает дату; загрузка идёт только когда текущих данных недостаточно
func (s *Session) SelectDate(date time.Time, force, networkTriggered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectDate(date, force, networkTriggered)
}

// NextDay следующий день
func (s *Session) NextDay() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectDate(s.selectedDate.AddDate(0, 0, 1), false, false)
}

// PreviousDay предыдущий день
func (s *Session) PreviousDay() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectDate(s.selectedDate.AddDate(0, 0, -1), false, false)
}

// Refresh ручное обновление сегодняшнего дня из сети
func (s *Session) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectDate(s.today(), true, false)
}

// OnConnectivity реакция на показание связи
func (s *Session) OnConnectivity(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if !online {
		s.online = false
		s.wasOffline = true
		// показанные данные больше не подтверждаются сетью
		if s.display.IsSuccess() && !s.display.Stale {
			s.setDisplay(s.display.WithStale(true), s.displayWeek)
		}
		return
	}

	s.online = true
	switch {
	case s.wasOffline && !s.restartShown:
		s.restartShown = true
		s.metrics.RestartSuggested()
		s.logger.Info("connectivity restored, suggesting restart", zap.String("entity", s.entity.String()))
		s.publish(Event{Kind: EventSuggestRestart})
	case s.restartShown:
		s.logger.Debug("connectivity available, restart already suggested")
	case !s.entity.IsZero():
		staleOrFailed := (s.display.IsSuccess() && s.display.Stale) || s.display.IsError()
		if staleOrFailed {
			s.selectDate(s.selectedDate, true, true)
		}
	}
	s.wasOffline = false
}

func (s *Session) selectDate(date time.Time, force, networkTriggered bool) {
	if s.closed {
		return
	}
	if networkTriggered && s.restartShown {
		s.logger.Debug("network-triggered refresh suppressed, restart pending")
		return
	}

	date = timetable.DayStart(date.In(s.loc))

	if s.entity.IsZero() {
		s.selectedDate = date
		s.setDisplay(model.Failure(MsgSelectEntity, 0, model.FailureNoData), s.weekOffset)
		return
	}

	target := timetable.WeekOffset(s.today(), date)

	needFetch := force
	if !force {
		switch s.display.State {
		case model.OutcomeSuccess:
			_, found := timetable.FindDay(s.days, date)
			needFetch = target != s.weekOffset || !found
		case model.OutcomeError:
			needFetch = true
		case model.OutcomeLoading:
			needFetch = target != s.weekOffset
		}
	}

	if !needFetch {
		s.selectedDate = date
		if s.display.IsSuccess() {
			s.publishDisplay()
		}
		return
	}

	// переход на другую неделю сам по себе не требует сети: кеш решит сервис
	s.startFetch(date, force || s.display.IsError(), networkTriggered)
}

func (s *Session) startFetch(date time.Time, force, networkTriggered bool) {
	if networkTriggered && s.restartShown {
		return
	}

	week := timetable.WeekOffset(s.today(), date)
	s.selectedDate = date
	s.weekOffset = week

	req := fetchRequest{
		week:         week,
		force:        force,
		network:      networkTriggered,
		previous:     s.display,
		previousWeek: s.displayWeek,
		previousOf:   s.displayEntity,
	}

	if !s.display.IsSuccess() || len(s.display.Lessons) == 0 || force {
		s.setDisplay(model.Loading(), week)
	}

	s.stopFetch()
	s.generation++
	req.generation = s.generation

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelFetch = cancel

	s.logger.Debug("session fetch",
		zap.String("entity", s.entity.String()),
		zap.Int("week_offset", week),
		zap.Bool("force", force),
		zap.Bool("network_triggered", networkTriggered),
	)

	ch := s.resolver.Resolve(ctx, s.entity, week, force)
	go s.consume(ch, req)
}

func (s *Session) stopFetch() {
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
}

func (s *Session) consume(ch <-chan model.FetchOutcome, req fetchRequest) {
	for outcome := range ch {
		s.mu.Lock()
		if !s.closed && req.generation == s.generation {
			s.apply(outcome, req)
		}
		s.mu.Unlock()
	}
}

func (s *Session) apply(outcome model.FetchOutcome, req fetchRequest) {
	explicit := req.force || req.network

	switch outcome.State {
	case model.OutcomeLoading:
		if !s.display.IsSuccess() && !s.display.IsLoading() {
			s.setDisplay(outcome, req.week)
		}

	case model.OutcomeSuccess:
		s.setDisplay(outcome, req.week)
		if !outcome.Stale && explicit {
			if s.restartShown {
				s.restartShown = false
				s.message(MsgRefreshed)
			}
		} else if outcome.Stale && explicit && s.resolver.IsOnline() && !s.restartShown {
			s.message(MsgStaleAfterRefresh)
		}

	case model.OutcomeError:
		// ошибка не перекрывает уже показанные данные той же недели
		if req.previous.HasContent() && req.previousWeek == req.week && req.previousOf == s.entity {
			s.setDisplay(req.previous.WithStale(true), req.week)
			if explicit {
				s.message(fmt.Sprintf(msgErrorOverContent, outcome.Message))
			}
			return
		}
		s.setDisplay(outcome, req.week)
	}
}

func (s *Session) setDisplay(outcome model.FetchOutcome, week int) {
	s.display = outcome
	s.displayWeek = week
	s.displayEntity = s.entity
	if outcome.IsSuccess() {
		s.days = timetable.GroupByDate(outcome.Lessons, s.loc)
	} else if outcome.IsError() {
		s.days = nil
	}
	s.publishDisplay()
}

func (s *Session) publishDisplay() {
	day, ok := timetable.FindDay(s.days, s.selectedDate)
	s.publish(Event{
		Kind:    EventDisplay,
		Outcome: s.display,
		Date:    s.selectedDate,
		Day:     day,
		HasDay:  ok && s.display.IsSuccess(),
	})
}

func (s *Session) message(text string) {
	s.publish(Event{Kind: EventMessage, Message: text})
}

func (s *Session) publish(ev Event) {
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("session event dropped, consumer is slow", zap.Int("kind", int(ev.Kind)))
	}
}

func (s *Session) today() time.Time {
	return timetable.DayStart(s.now().In(s.loc))
}
