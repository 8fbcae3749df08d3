package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/sirius_schedule/internal/controller/sessions"
	"github.com/Freeeeeet/sirius_schedule/internal/model"
	"github.com/Freeeeeet/sirius_schedule/internal/service"
)

// Sender методы Telegram API, которыми пользуются обработчики (*bot.Bot)
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// ScheduleReader разовое получение недели без сессии (/nextlesson)
type ScheduleReader interface {
	ResolveTerminal(ctx context.Context, entity model.Entity, weekOffset int, force bool) (model.FetchOutcome, bool)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	sender   Sender
	registry *sessions.Registry
	schedule ScheduleReader
	prefs    *service.PreferencesService
	catalog  *service.CatalogService
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger

	// сообщение с карточкой дня, которое редактируется при навигации
	cardsMu sync.Mutex
	cards   map[int64]int // chatID -> messageID
}

// NewHandlers создаёт новый обработчик команд и подключает его к реестру сессий
func NewHandlers(
	sender Sender,
	registry *sessions.Registry,
	schedule ScheduleReader,
	prefs *service.PreferencesService,
	catalog *service.CatalogService,
	loc *time.Location,
	logger *zap.Logger,
) *Handlers {
	if loc == nil {
		loc = time.Local
	}
	h := &Handlers{
		sender:   sender,
		registry: registry,
		schedule: schedule,
		prefs:    prefs,
		catalog:  catalog,
		loc:      loc,
		now:      func() time.Time { return time.Now().In(loc) },
		logger:   logger,
		cards:    make(map[int64]int),
	}
	registry.SetPresenter(h)
	return h
}
