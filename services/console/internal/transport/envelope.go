package transport

import (
	stderrors "errors"

	"NexusPlatform/pkg/errors"
)

// Envelope единый ответ операции для внешнего слоя (CLI): {success, data|error}
type Envelope[T any] struct {
	Success bool                `json:"success"`
	Data    T                   `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Code    errors.ErrorCode    `json:"code,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// Result строит конверт из результата операции
func Result[T any](v T, err error) Envelope[T] {
	if err == nil {
		return Envelope[T]{Success: true, Data: v}
	}

	env := Envelope[T]{Success: false, Code: errors.CodeOf(err)}

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		env.Error = appErr.GetUserMessage()
		env.Fields = appErr.Fields
	} else {
		env.Error = err.Error()
	}
	return env
}

// Unexpected сообщает, что ошибка не относится к ожидаемым классам
// (сеть, аутентификация, валидация, бизнес-правило, доступ).
func (e Envelope[T]) Unexpected() bool {
	return !e.Success && e.Code == errors.ErrInternal
}
