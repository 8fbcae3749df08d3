package connectivity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/metrics"
)

// Prober проверяет доступность сети (например, HEAD на хост API)
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor хранит текущее состояние связи и рассылает подписчикам только изменения
type Monitor struct {
	prober   Prober
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	nextID int
}

// NewMonitor создаёт монитор с начальным состоянием initial
func NewMonitor(prober Prober, interval time.Duration, initial bool, m *metrics.Metrics, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	m.SetOnline(initial)
	return &Monitor{
		prober:   prober,
		interval: interval,
		metrics:  m,
		logger:   logger,
		online:   initial,
		subs:     make(map[int]chan bool),
	}
}

// IsOnline текущее состояние связи
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe возвращает канал изменений состояния. Первым значением приходит
// текущее состояние. Медленный подписчик получает только последнее значение.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	ch <- m.online
	m.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if sub, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(sub)
			}
		})
	}
	return ch, unsubscribe
}

// Set выставляет состояние и оповещает подписчиков, если оно изменилось
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	m.metrics.SetOnline(online)
	m.logger.Info("Connectivity changed", zap.Bool("online", online))

	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
			// вытесняем непрочитанное значение, остаётся только последнее
			select {
			case <-ch:
			default:
			}
			ch <- online
		}
	}
}

// Check выполняет одну проверку связи
func (m *Monitor) Check(ctx context.Context) bool {
	err := m.prober.Ping(ctx)
	if err != nil {
		m.logger.Debug("Connectivity probe failed", zap.Error(err))
	}
	online := err == nil
	m.Set(online)
	return online
}

// Run периодически проверяет связь до отмены ctx
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Info("Starting connectivity monitor", zap.Duration("interval", m.interval))
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			m.logger.Info("Connectivity monitor stopped")
			return
		}
	}
}
