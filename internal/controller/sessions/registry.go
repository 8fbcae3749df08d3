package sessions

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

// Presenter доставляет события сессии в чат
type Presenter interface {
	Present(ctx context.Context, chatID int64, ev service.Event)
}

// Registry хранит сессию расписания для каждого чата
type Registry struct {
	mu        sync.RWMutex
	sessions  map[int64]*service.Session // chatID -> Session
	resolver  service.Resolver
	opts      service.SessionOptions
	presenter Presenter
	ctx       context.Context
	logger    *zap.Logger
}

// NewRegistry создаёт реестр сессий. ctx ограничивает жизнь всех сессий.
func NewRegistry(ctx context.Context, resolver service.Resolver, opts service.SessionOptions, logger *zap.Logger) *Registry {
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &Registry{
		sessions: make(map[int64]*service.Session),
		resolver: resolver,
		opts:     opts,
		ctx:      ctx,
		logger:   logger,
	}
}

// SetPresenter задаёт получателя событий. Вызывается до первой сессии.
func (r *Registry) SetPresenter(p Presenter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presenter = p
}

// Get возвращает сессию чата, если она есть
func (r *Registry) Get(chatID int64) (*service.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[chatID]
	return s, ok
}

// GetOrCreate возвращает сессию чата, создавая её при необходимости.
// created=true, если сессия новая.
func (r *Registry) GetOrCreate(chatID int64) (s *service.Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[chatID]; ok {
		return s, false
	}
	return r.createLocked(chatID), true
}

// Reset закрывает текущую сессию чата и создаёт новую (/start)
func (r *Registry) Reset(chatID int64) *service.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.sessions[chatID]; ok {
		old.Close()
	}
	return r.createLocked(chatID)
}

func (r *Registry) createLocked(chatID int64) *service.Session {
	s := service.NewSession(r.ctx, r.resolver, r.opts)
	r.sessions[chatID] = s
	go r.forward(chatID, s)

	r.logger.Debug("Session created", zap.Int64("chat_id", chatID))
	return s
}

// forward пересылает события сессии в чат, пока сессия не закрыта
func (r *Registry) forward(chatID int64, s *service.Session) {
	for ev := range s.Events() {
		r.mu.RLock()
		p := r.presenter
		r.mu.RUnlock()

		if p == nil {
			continue
		}
		p.Present(r.ctx, chatID, ev)
	}
}

// Broadcast сообщает всем сессиям о состоянии сети
func (r *Registry) Broadcast(online bool) {
	r.mu.RLock()
	list := make([]*service.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()

	for _, s := range list {
		s.OnConnectivity(online)
	}
}

// Run транслирует изменения сети в сессии. Раз в recheck повторяет текущее
// состояние, чтобы сессии online->online могли перезапросить устаревшие данные.
func (r *Registry) Run(ctx context.Context, updates <-chan bool, recheck time.Duration, isOnline func() bool) {
	var tick <-chan time.Time
	if recheck > 0 {
		ticker := time.NewTicker(recheck)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case online, ok := <-updates:
			if !ok {
				return
			}
			r.logger.Info("Connectivity changed", zap.Bool("online", online), zap.Int("sessions", r.Len()))
			r.Broadcast(online)
		case <-tick:
			r.Broadcast(isOnline())
		case <-ctx.Done():
			return
		}
	}
}

// Len количество активных сессий
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll закрывает все сессии
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for chatID, s := range r.sessions {
		s.Close()
		delete(r.sessions, chatID)
	}
}
