package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

type fakeCatalog struct {
	groupCalls   atomic.Int32
	teacherCalls atomic.Int32
	err          error
}

func (f *fakeCatalog) FetchGroups(context.Context) ([]model.GroupInfo, error) {
	f.groupCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []model.GroupInfo{{Name: "К0709-23"}, {Name: "К0710-23"}, {Name: "И0101-24"}}, nil
}

func (f *fakeCatalog) FetchTeachers(context.Context) ([]model.TeacherInfo, error) {
	f.teacherCalls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []model.TeacherInfo{
		{ID: "7", Name: "Иванов Иван Иванович"},
		{ID: "8", Name: "Иванова Мария Петровна"},
		{ID: "9", Name: "Петров Пётр Петрович"},
	}, nil
}

func TestCatalogService_OfflineWithoutMemo(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{}, newFakeOnline(false), 0, zap.NewNop())

	_, err := svc.Groups(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
	_, err = svc.Teachers(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestCatalogService_MemoizesWithinTTL(t *testing.T) {
	fetcher := &fakeCatalog{}
	online := newFakeOnline(true)
	svc := NewCatalogService(fetcher, online, time.Minute, zap.NewNop())
	now := time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Groups(context.Background())
	require.NoError(t, err)

	online.set(false)
	groups, err := svc.Groups(context.Background())
	require.NoError(t, err, "свежий справочник отдаётся без сети")
	assert.Len(t, groups, 3)
	assert.Equal(t, int32(1), fetcher.groupCalls.Load())

	now = now.Add(2 * time.Minute)
	_, err = svc.Groups(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestCatalogService_FetchError(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{err: errBoom}, newFakeOnline(true), 0, zap.NewNop())

	_, err := svc.Teachers(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestCatalogService_Search(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{}, newFakeOnline(true), 0, zap.NewNop())
	ctx := context.Background()

	teachers, err := svc.SearchTeachers(ctx, "иванов")
	require.NoError(t, err)
	assert.Len(t, teachers, 2)

	all, err := svc.SearchTeachers(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	groups, err := svc.SearchGroups(ctx, "к07")
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestCatalogService_FindTeacher(t *testing.T) {
	svc := NewCatalogService(&fakeCatalog{}, newFakeOnline(true), 0, zap.NewNop())
	ctx := context.Background()

	byID, _, err := svc.FindTeacher(ctx, "9")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Петров Пётр Петрович", byID.Name)

	unique, _, err := svc.FindTeacher(ctx, "мария")
	require.NoError(t, err)
	require.NotNil(t, unique)
	assert.Equal(t, "8", unique.ID)

	// фамилия совпадает целиком только у одного, хотя подстрока есть и в "Иванова"
	bySurname, _, err := svc.FindTeacher(ctx, "Иванов")
	require.NoError(t, err)
	require.NotNil(t, bySurname)
	assert.Equal(t, "7", bySurname.ID)

	// "Петров" встречается в отчестве "Петровна", но фамилия однозначна
	petrov, _, err := svc.FindTeacher(ctx, "петров")
	require.NoError(t, err)
	require.NotNil(t, petrov)
	assert.Equal(t, "9", petrov.ID)

	none, candidates, err := svc.FindTeacher(ctx, "иван")
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Len(t, candidates, 2)
}
