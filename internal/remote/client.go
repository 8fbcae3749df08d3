package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

const maxErrorBody = 512

// Options настройки клиента API расписания
type Options struct {
	BaseURL   string
	Timeout   time.Duration // ограничение на один запрос целиком
	RateLimit float64       // запросов в секунду, 0 - без ограничения
	Burst     int
}

// Client HTTP-клиент API расписания. Один вызов - один запрос.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient создаёт клиента API
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    limiter,
		timeout:    opts.Timeout,
		logger:     logger,
	}, nil
}

// BaseURL адрес API (используется проверкой связи)
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// FetchSchedule загружает расписание группы или преподавателя на неделю
func (c *Client) FetchSchedule(ctx context.Context, entity model.Entity, weekOffset int) ([]model.Lesson, error) {
	var (
		path  string
		query url.Values
	)
	switch entity.Kind {
	case model.EntityTeacher:
		path = "api/teacherschedule"
		query = url.Values{"id": {entity.ID}, "week": {strconv.Itoa(weekOffset)}}
	default:
		path = "api/schedule"
		query = url.Values{"group": {entity.ID}, "week": {strconv.Itoa(weekOffset)}}
	}

	var lessons []model.Lesson
	if err := c.getJSON(ctx, path, query, &lessons); err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []model.Lesson{}
	}
	return lessons, nil
}

// FetchGroups загружает список групп
func (c *Client) FetchGroups(ctx context.Context) ([]model.GroupInfo, error) {
	var names []string
	if err := c.getJSON(ctx, "api/groups", nil, &names); err != nil {
		return nil, err
	}

	groups := make([]model.GroupInfo, 0, len(names))
	for _, name := range names {
		groups = append(groups, model.GroupInfo{Name: name})
	}
	return groups, nil
}

// FetchTeachers загружает справочник преподавателей id -> ФИО
func (c *Client) FetchTeachers(ctx context.Context) ([]model.TeacherInfo, error) {
	var byID map[string]string
	if err := c.getJSON(ctx, "api/teachers", nil, &byID); err != nil {
		return nil, err
	}
	return model.TeacherInfosFromMap(byID), nil
}

// Ping проверяет доступность хоста API (любой HTTP-ответ считается связью)
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dst interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %v", ErrTransport, err)
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("API request failed",
			zap.String("url", u.String()),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API response",
		zap.String("url", u.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		// пустое тело при 2xx - пустой ответ
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}
