package remote

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Freeeeeet/sirius_schedule/internal/model"
)

var (
	// ErrTransport таймаут, отказ соединения, DNS
	ErrTransport = errors.New("transport failure")
	// ErrParse некорректное тело ответа
	ErrParse = errors.New("malformed payload")
)

// APIError ответ сервера с кодом не 2xx
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s", e.Status)
}

// Classify относит ошибку клиента к категории
func Classify(err error) model.FailureReason {
	if err == nil {
		return model.FailureNone
	}

	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return model.FailureAPI
	case errors.Is(err, ErrParse):
		return model.FailureParse
	case errors.Is(err, ErrTransport):
		return model.FailureTransport
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return model.FailureTransport
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return model.FailureTransport
	}
	return model.FailureUnexpected
}

// StatusCode HTTP-код из ошибки или 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
