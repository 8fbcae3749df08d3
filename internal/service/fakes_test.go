package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

type fakeCache struct {
	mu       sync.Mutex
	weeks    map[string][]model.Lesson
	writes   map[string]int
	readErr  error
	writeErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		weeks:  make(map[string][]model.Lesson),
		writes: make(map[string]int),
	}
}

func (c *fakeCache) GetWeek(_ context.Context, weekID string) ([]model.Lesson, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	src := c.weeks[weekID]
	result := make([]model.Lesson, len(src))
	copy(result, src)
	return result, nil
}

func (c *fakeCache) ReplaceWeek(_ context.Context, weekID string, lessons []model.Lesson) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	stored := make([]model.Lesson, len(lessons))
	copy(stored, lessons)
	c.weeks[weekID] = stored
	c.writes[weekID]++
	return nil
}

func (c *fakeCache) put(weekID string, lessons ...model.Lesson) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.weeks[weekID] = lessons
}

func (c *fakeCache) stored(weekID string) ([]model.Lesson, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lessons, ok := c.weeks[weekID]
	return lessons, ok
}

func (c *fakeCache) writeCount(weekID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes[weekID]
}

type fakeFetcher struct {
	calls atomic.Int32
	fn    func(ctx context.Context, entity model.Entity, weekOffset int) ([]model.Lesson, error)
}

func (f *fakeFetcher) FetchSchedule(ctx context.Context, entity model.Entity, weekOffset int) ([]model.Lesson, error) {
	f.calls.Add(1)
	if f.fn == nil {
		return []model.Lesson{}, nil
	}
	return f.fn(ctx, entity, weekOffset)
}

func returning(lessons ...model.Lesson) func(context.Context, model.Entity, int) ([]model.Lesson, error) {
	return func(context.Context, model.Entity, int) ([]model.Lesson, error) {
		return lessons, nil
	}
}

func failing(err error) func(context.Context, model.Entity, int) ([]model.Lesson, error) {
	return func(context.Context, model.Entity, int) ([]model.Lesson, error) {
		return nil, err
	}
}

type fakeOnline struct {
	online atomic.Bool
}

func newFakeOnline(online bool) *fakeOnline {
	o := &fakeOnline{}
	o.online.Store(online)
	return o
}

func (o *fakeOnline) IsOnline() bool { return o.online.Load() }

func (o *fakeOnline) set(online bool) { o.online.Store(online) }

var errBoom = errors.New("boom")

func lesson(date, start, discipline string) model.Lesson {
	return model.Lesson{
		Date:       date,
		StartTime:  start,
		EndTime:    start,
		Discipline: discipline,
		Color:      model.DefaultLessonColor,
	}
}
