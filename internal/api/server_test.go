package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/metrics"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type resolveArgs struct {
	entity model.Entity
	week   int
	force  bool
}

type fakeSchedule struct {
	last    resolveArgs
	outcome model.FetchOutcome
}

func (f *fakeSchedule) ResolveTerminal(_ context.Context, entity model.Entity, week int, force bool) (model.FetchOutcome, bool) {
	f.last = resolveArgs{entity: entity, week: week, force: force}
	return f.outcome, true
}

type fakeCatalog struct {
	err error
}

func (f *fakeCatalog) SearchGroups(_ context.Context, q string) ([]model.GroupInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	if q == "нет" {
		return nil, nil
	}
	return []model.GroupInfo{{Name: "К0709-23"}}, nil
}

func (f *fakeCatalog) SearchTeachers(context.Context, string) ([]model.TeacherInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []model.TeacherInfo{{ID: "7", Name: "Иванов Иван Иванович"}}, nil
}

type fakeOnline bool

func (f fakeOnline) IsOnline() bool { return bool(f) }

func setupTestRouter(schedule *fakeSchedule, catalog *fakeCatalog) *gin.Engine {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.SetOnline(true)
	return NewRouter(NewHandlers(schedule, catalog, fakeOnline(true), reg, zap.NewNop()))
}

func get(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	w := get(t, setupTestRouter(&fakeSchedule{}, &fakeCatalog{}), "/healthz")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","online":true}`, w.Body.String())
}

func TestHandleMetrics(t *testing.T) {
	w := get(t, setupTestRouter(&fakeSchedule{}, &fakeCatalog{}), "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sirius_schedule_connectivity_online 1")
}

func TestHandleSchedule_Success(t *testing.T) {
	schedule := &fakeSchedule{outcome: model.Success([]model.Lesson{{Date: "02.09.2024", Discipline: "Физика"}}, true)}
	router := setupTestRouter(schedule, &fakeCatalog{})

	w := get(t, router, "/api/v1/schedule?entity=%D0%9A0709-23&week=1&force=true")

	require.Equal(t, http.StatusOK, w.Code)
	var resp ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.State)
	assert.True(t, resp.Stale)
	assert.Equal(t, "К0709-23_offset1", resp.WeekID)
	require.Len(t, resp.Lessons, 1)

	assert.Equal(t, model.Group("К0709-23"), schedule.last.entity)
	assert.Equal(t, 1, schedule.last.week)
	assert.True(t, schedule.last.force)
}

func TestHandleSchedule_TeacherKind(t *testing.T) {
	schedule := &fakeSchedule{outcome: model.Success(nil, false)}
	w := get(t, setupTestRouter(schedule, &fakeCatalog{}), "/api/v1/schedule?entity=42")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.TeacherEntity("42"), schedule.last.entity)
	assert.Contains(t, w.Body.String(), `"week_id":"teacher_42_offset0"`)
}

func TestHandleSchedule_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		outcome model.FetchOutcome
		status  int
	}{
		{"no data", model.Failure(service.MsgNoCache, 0, model.FailureNoData), http.StatusNotFound},
		{"api", model.Failure("Ошибка API: 500 - Internal Server Error", 500, model.FailureAPI), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, setupTestRouter(&fakeSchedule{outcome: tt.outcome}, &fakeCatalog{}), "/api/v1/schedule?entity=42")
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), string(tt.outcome.Reason))
		})
	}
}

func TestHandleSchedule_BadRequest(t *testing.T) {
	router := setupTestRouter(&fakeSchedule{}, &fakeCatalog{})

	for _, url := range []string{
		"/api/v1/schedule",
		"/api/v1/schedule?entity=42&week=x",
		"/api/v1/schedule?entity=42&force=maybe",
		"/api/v1/schedule?entity=42&kind=room",
	} {
		assert.Equal(t, http.StatusBadRequest, get(t, router, url).Code, url)
	}
}

func TestHandleCatalogs(t *testing.T) {
	router := setupTestRouter(&fakeSchedule{}, &fakeCatalog{})

	w := get(t, router, "/api/v1/groups?q=K07")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"К0709-23"}]`, w.Body.String())

	w = get(t, router, "/api/v1/groups?q=%D0%BD%D0%B5%D1%82")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = get(t, router, "/api/v1/teachers")
	assert.True(t, strings.Contains(w.Body.String(), `"id":"7"`))
}

func TestHandleCatalogs_Errors(t *testing.T) {
	w := get(t, setupTestRouter(&fakeSchedule{}, &fakeCatalog{err: service.ErrOffline}), "/api/v1/teachers")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), service.MsgNoInternet)

	w = get(t, setupTestRouter(&fakeSchedule{}, &fakeCatalog{err: errors.New("boom")}), "/api/v1/groups")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleConnectivity(t *testing.T) {
	w := get(t, setupTestRouter(&fakeSchedule{}, &fakeCatalog{}), "/api/v1/connectivity")
	assert.JSONEq(t, `{"online":true}`, w.Body.String())
}
