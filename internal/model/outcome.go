package model

import "fmt"

// OutcomeState состояние результата загрузки расписания
type OutcomeState int

const (
	OutcomeLoading OutcomeState = iota
	OutcomeSuccess
	OutcomeError
)

func (s OutcomeState) String() string {
	switch s {
	case OutcomeLoading:
		return "loading"
	case OutcomeSuccess:
		return "success"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// FailureReason категория ошибки
type FailureReason string

const (
	FailureNone       FailureReason = ""
	FailureTransport  FailureReason = "transport"
	FailureAPI        FailureReason = "api"
	FailureCacheRead  FailureReason = "cache_read"
	FailureParse      FailureReason = "parse"
	FailureNoData     FailureReason = "no_data"
	FailureUnexpected FailureReason = "unexpected"
)

// FetchOutcome результат одной попытки получить расписание: Loading, Success или Error.
// Stale=true означает, что данные не подтверждены сетью в этом цикле.
type FetchOutcome struct {
	State   OutcomeState
	Lessons []Lesson
	Stale   bool
	Message string
	Code    int // HTTP-код, 0 если его нет
	Reason  FailureReason
}

// Loading состояние загрузки
func Loading() FetchOutcome {
	return FetchOutcome{State: OutcomeLoading}
}

// Success успешный результат
func Success(lessons []Lesson, stale bool) FetchOutcome {
	if lessons == nil {
		lessons = []Lesson{}
	}
	return FetchOutcome{State: OutcomeSuccess, Lessons: lessons, Stale: stale}
}

// Failure ошибка с сообщением, кодом и причиной
func Failure(message string, code int, reason FailureReason) FetchOutcome {
	return FetchOutcome{State: OutcomeError, Message: message, Code: code, Reason: reason}
}

func (o FetchOutcome) IsLoading() bool  { return o.State == OutcomeLoading }
func (o FetchOutcome) IsSuccess() bool  { return o.State == OutcomeSuccess }
func (o FetchOutcome) IsError() bool    { return o.State == OutcomeError }
func (o FetchOutcome) IsTerminal() bool { return o.State != OutcomeLoading }

// HasContent true для успешного результата с непустыми данными
func (o FetchOutcome) HasContent() bool {
	return o.IsSuccess() && len(o.Lessons) > 0
}

// WithStale копия результата с другим флагом устаревания
func (o FetchOutcome) WithStale(stale bool) FetchOutcome {
	o.Stale = stale
	return o
}

func (o FetchOutcome) String() string {
	switch o.State {
	case OutcomeSuccess:
		return fmt.Sprintf("Success(%d lessons, stale=%t)", len(o.Lessons), o.Stale)
	case OutcomeError:
		return fmt.Sprintf("Error(%q, code=%d, reason=%s)", o.Message, o.Code, o.Reason)
	default:
		return "Loading"
	}
}
