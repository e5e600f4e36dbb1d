package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error представляет кастомную ошибку с дополнительной информацией
type Error struct {
	Code    ErrorCode           `json:"code"`
	Message string              `json:"message"`
	Details string              `json:"details,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
	Status  int                 `json:"status,omitempty"`
	Cause   error               `json:"-"`
}

// ErrorCode представляет код ошибки
type ErrorCode string

// Определение кодов ошибок
const (
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrNetwork      ErrorCode = "NETWORK_ERROR"
	ErrBusinessRule ErrorCode = "BUSINESS_RULE"
)

// Error возвращает сообщение об ошибке
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap возвращает причину ошибки
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду
func (e *Error) Is(target error) bool {
	if targetError, ok := target.(*Error); ok {
		return e.Code == targetError.Code
	}
	return false
}

// New создает новую кастомную ошибку
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает существующую ошибку в кастомную
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails добавляет детали к ошибке
func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Details = details
	return &clone
}

// WithFields добавляет ошибки по полям
func (e *Error) WithFields(fields map[string][]string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Fields = fields
	return &clone
}

// CodeOf извлекает код ошибки из цепочки. Для чужих ошибок возвращает ErrInternal.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// HasCode сообщает, несет ли цепочка ошибку с указанным кодом
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// WithFallback возвращает ошибку приложения, сообщение которой пригодно для пользователя:
// текст сервера, если он есть, иначе fallback. Сетевые ошибки не меняются.
func WithFallback(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		return Wrap(err, ErrInternal, fallback)
	}
	if appErr.Code == ErrNetwork {
		return appErr
	}
	if appErr.Message == "" || (appErr.Status != 0 && appErr.Message == http.StatusText(appErr.Status)) {
		clone := *appErr
		clone.Message = fallback
		return &clone
	}
	return appErr
}

// HTTPStatus возвращает соответствующий HTTP статус для ошибки
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusOK
	}
	if e.Status != 0 {
		return e.Status
	}

	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrBusinessRule:
		return http.StatusUnprocessableEntity
	case ErrNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetUserMessage возвращает пользовательское сообщение об ошибке.
// Сообщение сервера имеет приоритет; для ошибок по полям возвращается первое сообщение поля.
func (e *Error) GetUserMessage() string {
	if e == nil {
		return ""
	}

	if e.Code == ErrValidation && len(e.Fields) > 0 {
		field := e.FirstField()
		return fmt.Sprintf("%s: %s", field, strings.Join(e.Fields[field], " "))
	}

	if e.Code != ErrInternal && e.Code != ErrNetwork && e.Message != "" {
		return e.Message
	}

	switch e.Code {
	case ErrNotFound:
		return "Recurso no encontrado"
	case ErrValidation:
		return "Error de validación"
	case ErrUnauthorized:
		return "Sesión no válida, inicia sesión de nuevo"
	case ErrForbidden:
		return "Acceso denegado"
	case ErrConflict:
		return "El registro ya existe"
	case ErrNetwork:
		return "No se pudo conectar con el servidor"
	case ErrBusinessRule:
		return "La operación no está permitida"
	case ErrInternal:
		return "Ha ocurrido un error inesperado en el servidor"
	default:
		return "Ha ocurrido un error"
	}
}

// FirstField возвращает имя первого (в алфавитном порядке) поля с ошибкой
func (e *Error) FirstField() string {
	if e == nil || len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0]
}

// messageKeys ключи, в которых бэкенд возвращает текст ошибки
var messageKeys = []string{"error", "message", "detail", "mensaje"}

// FromHTTPResponse преобразует неуспешный HTTP ответ в кастомную ошибку.
//
// Таксономия:
//   - 401 → ErrUnauthorized
//   - 403 → ErrForbidden
//   - 404 → ErrNotFound
//   - 409 → ErrConflict
//   - 400 с картой полей → ErrValidation (Fields заполнены)
//   - 400/422 без полей → ErrBusinessRule
//   - 5xx и прочее → ErrInternal
func FromHTTPResponse(status int, body []byte) *Error {
	message, fields := parseBody(body)

	var code ErrorCode
	switch {
	case status == http.StatusUnauthorized:
		code = ErrUnauthorized
	case status == http.StatusForbidden:
		code = ErrForbidden
	case status == http.StatusNotFound:
		code = ErrNotFound
	case status == http.StatusConflict:
		code = ErrConflict
	case status == http.StatusBadRequest && len(fields) > 0:
		code = ErrValidation
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		code = ErrBusinessRule
	default:
		code = ErrInternal
	}

	if message == "" {
		message = http.StatusText(status)
	}

	e := &Error{Code: code, Message: message, Status: status}
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e
}

func parseBody(body []byte) (string, map[string][]string) {
	if len(body) == 0 {
		return "", nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		var list []interface{}
		if json.Unmarshal(body, &list) == nil {
			return joinValues(list), nil
		}
		return strings.TrimSpace(string(body)), nil
	}

	for _, key := range messageKeys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, splitFlattenedFields(s)
			}
		}
	}

	fields := make(map[string][]string)
	for key, v := range raw {
		switch val := v.(type) {
		case []interface{}:
			fields[key] = toStrings(val)
		case string:
			fields[key] = []string{val}
		}
	}
	if len(fields) == 0 {
		return "", nil
	}
	e := &Error{Fields: fields}
	first := e.FirstField()
	return fmt.Sprintf("%s: %s", first, strings.Join(fields[first], " ")), fields
}

// splitFlattenedFields разбирает сообщение вида "Username: msg | Email: msg",
// в которое бэкенд сворачивает ошибки сериализатора.
func splitFlattenedFields(message string) map[string][]string {
	parts := strings.Split(message, " | ")
	fields := make(map[string][]string)
	for _, part := range parts {
		idx := strings.Index(part, ": ")
		if idx <= 0 {
			return nil
		}
		name := part[:idx]
		if strings.ContainsAny(name, " \t") {
			return nil
		}
		fields[strings.ToLower(name)] = append(fields[strings.ToLower(name)], part[idx+2:])
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func joinValues(values []interface{}) string {
	return strings.Join(toStrings(values), " ")
}
