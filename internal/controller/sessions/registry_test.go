package sessions

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

type instantResolver struct {
	online atomic.Bool
	calls  atomic.Int32
}

func (r *instantResolver) Resolve(_ context.Context, _ model.Entity, _ int, _ bool) <-chan model.FetchOutcome {
	r.calls.Add(1)
	ch := make(chan model.FetchOutcome, 2)
	ch <- model.Loading()
	ch <- model.Success([]model.Lesson{{Date: "02.09.2024", StartTime: "08:45", EndTime: "10:05", Discipline: "Физика"}}, false)
	close(ch)
	return ch
}

func (r *instantResolver) IsOnline() bool { return r.online.Load() }

type recordingPresenter struct {
	mu     sync.Mutex
	events map[int64][]service.Event
}

func (p *recordingPresenter) Present(_ context.Context, chatID int64, ev service.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[chatID] = append(p.events[chatID], ev)
}

func (p *recordingPresenter) count(chatID int64, kind service.EventKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events[chatID] {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func newTestRegistry(t *testing.T, online bool) (*Registry, *instantResolver, *recordingPresenter) {
	t.Helper()

	resolver := &instantResolver{}
	resolver.online.Store(online)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	now := time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(ctx, resolver, service.SessionOptions{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}, zap.NewNop())

	p := &recordingPresenter{events: make(map[int64][]service.Event)}
	r.SetPresenter(p)
	t.Cleanup(r.CloseAll)
	return r, resolver, p
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r, _, _ := newTestRegistry(t, true)

	s1, created := r.GetOrCreate(1)
	require.True(t, created)
	s2, created := r.GetOrCreate(1)
	assert.False(t, created)
	assert.Same(t, s1, s2)

	_, ok := r.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ForwardsEvents(t *testing.T) {
	r, resolver, p := newTestRegistry(t, true)

	s, _ := r.GetOrCreate(7)
	s.SelectEntity(model.Group("К0709-23"))

	require.Eventually(t, func() bool {
		return s.Snapshot().Display.IsSuccess()
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return p.count(7, service.EventDisplay) >= 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), resolver.calls.Load())
}

func TestRegistry_ResetReplacesSession(t *testing.T) {
	r, _, _ := newTestRegistry(t, true)

	old, _ := r.GetOrCreate(1)
	fresh := r.Reset(1)

	assert.NotSame(t, old, fresh)
	_, open := <-old.Events()
	assert.False(t, open, "старая сессия закрыта")

	current, _ := r.Get(1)
	assert.Same(t, fresh, current)
}

func TestRegistry_BroadcastSuggestsRestartOnce(t *testing.T) {
	r, _, p := newTestRegistry(t, false)
	r.GetOrCreate(1)
	r.GetOrCreate(2)

	r.Broadcast(true)
	r.Broadcast(true)

	require.Eventually(t, func() bool {
		return p.count(1, service.EventSuggestRestart) == 1 && p.count(2, service.EventSuggestRestart) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRegistry_RunStopsOnClosedUpdates(t *testing.T) {
	r, _, p := newTestRegistry(t, false)
	r.GetOrCreate(1)

	updates := make(chan bool, 1)
	updates <- true
	close(updates)

	done := make(chan struct{})
	go func() {
		r.Run(context.Background(), updates, 0, func() bool { return true })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run не завершился")
	}
	require.Eventually(t, func() bool {
		return p.count(1, service.EventSuggestRestart) == 1
	}, time.Second, 5*time.Millisecond)
}
