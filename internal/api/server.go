package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

// ScheduleReader разовый resolve до терминального состояния
type ScheduleReader interface {
	ResolveTerminal(ctx context.Context, entity model.Entity, weekOffset int, force bool) (model.FetchOutcome, bool)
}

// CatalogReader поиск по справочникам
type CatalogReader interface {
	SearchGroups(ctx context.Context, query string) ([]model.GroupInfo, error)
	SearchTeachers(ctx context.Context, query string) ([]model.TeacherInfo, error)
}

// OnlineChecker текущее состояние сети
type OnlineChecker interface {
	IsOnline() bool
}

// ScheduleResponse терминальный результат resolve
type ScheduleResponse struct {
	Entity  string              `json:"entity"`
	Kind    string              `json:"kind"`
	WeekID  string              `json:"week_id"`
	State   string              `json:"state"`
	Stale   bool                `json:"stale"`
	Message string              `json:"message,omitempty"`
	Code    int                 `json:"code,omitempty"`
	Reason  model.FailureReason `json:"reason,omitempty"`
	Lessons []model.Lesson      `json:"lessons,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handlers HTTP обработчики
type Handlers struct {
	schedule ScheduleReader
	catalog  CatalogReader
	online   OnlineChecker
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

func NewHandlers(schedule ScheduleReader, catalog CatalogReader, online OnlineChecker, gatherer prometheus.Gatherer, logger *zap.Logger) *Handlers {
	return &Handlers{
		schedule: schedule,
		catalog:  catalog,
		online:   online,
		gatherer: gatherer,
		logger:   logger,
	}
}

// NewRouter собирает gin engine со всеми маршрутами
func NewRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))

	router.GET("/healthz", h.HandleHealth)
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.GET("/schedule", h.HandleSchedule)
	v1.GET("/groups", h.HandleGroups)
	v1.GET("/teachers", h.HandleTeachers)
	v1.GET("/connectivity", h.HandleConnectivity)
	return router
}

// requestLogger пишет каждый запрос в zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "online": h.online.IsOnline()})
}

func (h *Handlers) HandleConnectivity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.online.IsOnline()})
}

// HandleSchedule GET /api/v1/schedule?entity=К0709-23&week=0&force=false[&kind=teacher]
func (h *Handlers) HandleSchedule(c *gin.Context) {
	entity, err := parseEntity(c.Query("entity"), c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	week := 0
	if raw := c.Query("week"); raw != "" {
		week, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "week must be an integer"})
			return
		}
	}

	force := false
	if raw := c.Query("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "force must be a boolean"})
			return
		}
	}

	outcome, ok := h.schedule.ResolveTerminal(c.Request.Context(), entity, week, force)
	if !ok {
		// клиент ушёл раньше, чем пришёл результат
		c.Status(http.StatusRequestTimeout)
		return
	}

	resp := ScheduleResponse{
		Entity:  entity.ID,
		Kind:    entity.Kind.String(),
		WeekID:  entity.WeekID(week),
		State:   outcome.State.String(),
		Stale:   outcome.Stale,
		Message: outcome.Message,
		Code:    outcome.Code,
		Reason:  outcome.Reason,
		Lessons: outcome.Lessons,
	}
	c.JSON(statusFor(outcome), resp)
}

func (h *Handlers) HandleGroups(c *gin.Context) {
	groups, err := h.catalog.SearchGroups(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.catalogError(c, err)
		return
	}
	if groups == nil {
		groups = []model.GroupInfo{}
	}
	c.JSON(http.StatusOK, groups)
}

func (h *Handlers) HandleTeachers(c *gin.Context) {
	teachers, err := h.catalog.SearchTeachers(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.catalogError(c, err)
		return
	}
	if teachers == nil {
		teachers = []model.TeacherInfo{}
	}
	c.JSON(http.StatusOK, teachers)
}

func (h *Handlers) catalogError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrOffline) {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: service.MsgNoInternet})
		return
	}
	h.logger.Warn("Catalog request failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
}

// parseEntity kind задаёт тип явно, иначе он определяется по префиксу
func parseEntity(raw, kind string) (model.Entity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Entity{}, model.ErrEmptyEntity
	}
	switch kind {
	case "":
		return model.ParseEntity(raw)
	case model.EntityGroup.String():
		return model.Group(raw), nil
	case model.EntityTeacher.String():
		return model.TeacherEntity(raw), nil
	default:
		return model.Entity{}, errors.New("kind must be group or teacher")
	}
}

// statusFor HTTP-код для терминального результата
func statusFor(o model.FetchOutcome) int {
	switch {
	case o.IsSuccess():
		return http.StatusOK
	case o.Reason == model.FailureNoData:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
