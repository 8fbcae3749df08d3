package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL, Timeout: timeout}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestFetchSchedule_GroupEndpoint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/schedule", r.URL.Path)
		assert.Equal(t, "К20-1", r.URL.Query().Get("group"))
		assert.Equal(t, "1", r.URL.Query().Get("week"))
		w.Write([]byte(`[{"date":"20.10.2026","discipline":"Алгебра","numberPair":1,"teachers":"oops"}]`))
	}, time.Second)

	lessons, err := c.FetchSchedule(context.Background(), model.Group("К20-1"), 1)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "Алгебра", lessons[0].Discipline)
	assert.Nil(t, lessons[0].Teachers)
}

func TestFetchSchedule_TeacherEndpoint(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/teacherschedule", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("id"))
		assert.Equal(t, "-1", r.URL.Query().Get("week"))
		w.Write([]byte(`[]`))
	}, time.Second)

	lessons, err := c.FetchSchedule(context.Background(), model.TeacherEntity("42"), -1)
	require.NoError(t, err)
	assert.NotNil(t, lessons)
	assert.Empty(t, lessons)
}

func TestFetchSchedule_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, time.Second)

	_, err := c.FetchSchedule(context.Background(), model.Group("К20-1"), 0)
	require.Error(t, err)
	assert.Equal(t, model.FailureAPI, Classify(err))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestFetchSchedule_ParseError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"`))
	}, time.Second)

	_, err := c.FetchSchedule(context.Background(), model.Group("К20-1"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, model.FailureParse, Classify(err))
}

func TestFetchSchedule_TimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := c.FetchSchedule(context.Background(), model.Group("К20-1"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, model.FailureTransport, Classify(err))
}

func TestFetchGroupsAndTeachers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/groups":
			w.Write([]byte(`["К20-1","И21-2"]`))
		case "/api/teachers":
			w.Write([]byte(`{"7":"Петров П.П.","3":"Андреев А.А."}`))
		default:
			http.NotFound(w, r)
		}
	}, time.Second)

	groups, err := c.FetchGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.GroupInfo{{Name: "К20-1"}, {Name: "И21-2"}}, groups)

	teachers, err := c.FetchTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, model.TeacherInfo{ID: "3", Name: "Андреев А.А."}, teachers[0])
}

func TestClassify(t *testing.T) {
	assert.Equal(t, model.FailureNone, Classify(nil))
	assert.Equal(t, model.FailureTransport, Classify(context.DeadlineExceeded))
	assert.Equal(t, model.FailureAPI, Classify(&APIError{StatusCode: 404}))
	assert.Equal(t, model.FailureUnexpected, Classify(assert.AnError))
}
