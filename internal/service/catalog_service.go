package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

// CatalogFetcher справочники групп и преподавателей
type CatalogFetcher interface {
	FetchGroups(ctx context.Context) ([]model.GroupInfo, error)
	FetchTeachers(ctx context.Context) ([]model.TeacherInfo, error)
}

// ErrOffline нет связи и нет сохранённого справочника
var ErrOffline = errors.New("no network connection")

// MsgNoInternet текст ErrOffline для пользователя
const MsgNoInternet = "Нет подключения к интернету"

const DefaultCatalogTTL = time.Hour

// CatalogService справочники с памятью на ttl
type CatalogService struct {
	fetcher CatalogFetcher
	online  OnlineChecker
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu         sync.Mutex
	groups     []model.GroupInfo
	groupsAt   time.Time
	teachers   []model.TeacherInfo
	teachersAt time.Time
}

func NewCatalogService(fetcher CatalogFetcher, online OnlineChecker, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogService{
		fetcher: fetcher,
		online:  online,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

// Groups список групп
func (s *CatalogService) Groups(ctx context.Context) ([]model.GroupInfo, error) {
	s.mu.Lock()
	if s.groups != nil && s.now().Sub(s.groupsAt) < s.ttl {
		groups := s.groups
		s.mu.Unlock()
		return groups, nil
	}
	s.mu.Unlock()

	if !s.online.IsOnline() {
		return nil, ErrOffline
	}

	groups, err := s.fetcher.FetchGroups(ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch groups", zap.Error(err))
		return nil, fmt.Errorf("fetch groups: %w", err)
	}

	s.mu.Lock()
	s.groups, s.groupsAt = groups, s.now()
	s.mu.Unlock()
	return groups, nil
}

// Teachers список преподавателей
func (s *CatalogService) Teachers(ctx context.Context) ([]model.TeacherInfo, error) {
	s.mu.Lock()
	if s.teachers != nil && s.now().Sub(s.teachersAt) < s.ttl {
		teachers := s.teachers
		s.mu.Unlock()
		return teachers, nil
	}
	s.mu.Unlock()

	if !s.online.IsOnline() {
		return nil, ErrOffline
	}

	teachers, err := s.fetcher.FetchTeachers(ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch teachers", zap.Error(err))
		return nil, fmt.Errorf("fetch teachers: %w", err)
	}

	s.mu.Lock()
	s.teachers, s.teachersAt = teachers, s.now()
	s.mu.Unlock()
	return teachers, nil
}

// SearchGroups группы, в имени которых есть query (без учёта регистра)
func (s *CatalogService) SearchGroups(ctx context.Context, query string) ([]model.GroupInfo, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return groups, nil
	}

	var result []model.GroupInfo
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g.Name), query) {
			result = append(result, g)
		}
	}
	return result, nil
}

// SearchTeachers преподаватели, в ФИО которых есть query (без учёта регистра)
func (s *CatalogService) SearchTeachers(ctx context.Context, query string) ([]model.TeacherInfo, error) {
	teachers, err := s.Teachers(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return teachers, nil
	}

	var result []model.TeacherInfo
	for _, t := range teachers {
		if strings.Contains(strings.ToLower(t.Name), query) {
			result = append(result, t)
		}
	}
	return result, nil
}

// FindTeacher ищет преподавателя по id, затем по фамилии целиком, затем по
// однозначному фрагменту ФИО. Возвращает всех кандидатов, если фрагмент неоднозначен.
func (s *CatalogService) FindTeacher(ctx context.Context, idOrName string) (*model.TeacherInfo, []model.TeacherInfo, error) {
	teachers, err := s.Teachers(ctx)
	if err != nil {
		return nil, nil, err
	}

	idOrName = strings.TrimSpace(idOrName)
	for i := range teachers {
		if teachers[i].ID == idOrName {
			return &teachers[i], nil, nil
		}
	}

	matches, err := s.SearchTeachers(ctx, idOrName)
	if err != nil {
		return nil, nil, err
	}
	if bySurname, ok := uniqueSurname(matches, idOrName); ok {
		return bySurname, nil, nil
	}
	if len(matches) == 1 {
		return &matches[0], nil, nil
	}
	return nil, matches, nil
}

// uniqueSurname единственный кандидат, у которого фамилия (первое слово ФИО) совпадает с query
func uniqueSurname(candidates []model.TeacherInfo, query string) (*model.TeacherInfo, bool) {
	var found *model.TeacherInfo
	for i := range candidates {
		fields := strings.Fields(candidates[i].Name)
		if len(fields) == 0 || !strings.EqualFold(fields[0], query) {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = &candidates[i]
	}
	return found, found != nil
}
