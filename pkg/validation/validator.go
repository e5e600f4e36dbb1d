package validation

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"

	"NexusPlatform/pkg/errors"
)

// Validator предоставляет общие функции валидации.
// Все методы возвращают *errors.Error с кодом ErrValidation и картой полей.
type Validator struct{}

// NewValidator создает новый Validator
func NewValidator() *Validator {
	return &Validator{}
}

func fieldError(field, message string) *errors.Error {
	return errors.New(errors.ErrValidation, fmt.Sprintf("%s: %s", field, message)).
		WithFields(map[string][]string{field: {message}})
}

// ValidateRequiredFields проверяет обязательные поля.
// requiredFields сопоставляет ключ поля с его отображаемым именем.
func (v *Validator) ValidateRequiredFields(req map[string]interface{}, requiredFields map[string]string) error {
	fields := make(map[string][]string)
	for field, fieldName := range requiredFields {
		value, exists := req[field]
		if !exists || value == nil {
			fields[field] = []string{fmt.Sprintf("%s es requerido", fieldName)}
			continue
		}
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			fields[field] = []string{fmt.Sprintf("%s es requerido", fieldName)}
		}
	}
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return errors.New(errors.ErrValidation, fields[keys[0]][0]).WithFields(fields)
}

// ValidateURL проверяет корректность URL
func (v *Validator) ValidateURL(target string, allowedSchemes []string) error {
	if target == "" {
		return fieldError("url", "la URL es requerida")
	}

	if strings.ContainsAny(target, " \t\n\r") {
		return fieldError("url", "la URL contiene espacios")
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return fieldError("url", "formato de URL inválido")
	}

	if len(allowedSchemes) > 0 {
		schemeValid := false
		for _, scheme := range allowedSchemes {
			if parsedURL.Scheme == scheme {
				schemeValid = true
				break
			}
		}
		if !schemeValid {
			return fieldError("url", fmt.Sprintf("esquema no permitido %q, use uno de %v", parsedURL.Scheme, allowedSchemes))
		}
	}

	if parsedURL.Host == "" {
		return fieldError("url", "la URL debe tener un host")
	}

	return nil
}

// ValidateRoutePath проверяет путь маршрута меню: абсолютный, без пробелов,
// параметры только в виде целого сегмента ":name".
func (v *Validator) ValidateRoutePath(path string) error {
	if path == "" {
		return fieldError("path", "la ruta es requerida")
	}
	if !strings.HasPrefix(path, "/") {
		return fieldError("path", fmt.Sprintf("la ruta %q debe iniciar con /", path))
	}
	if strings.ContainsAny(path, " \t\n\r?#") {
		return fieldError("path", fmt.Sprintf("la ruta %q contiene caracteres inválidos", path))
	}
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if idx := strings.Index(segment, ":"); idx > 0 || segment == ":" {
			return fieldError("path", fmt.Sprintf("parámetro inválido en el segmento %q", segment))
		}
	}
	return nil
}

// ValidateEnum проверяет значение на соответствие enum
func (v *Validator) ValidateEnum(value string, allowedValues []string, fieldName string) error {
	if value == "" {
		return fieldError(fieldName, "es requerido")
	}

	for _, allowed := range allowedValues {
		if value == allowed {
			return nil
		}
	}

	return fieldError(fieldName, fmt.Sprintf("valor inválido %q, permitidos: %v", value, allowedValues))
}

// ValidateStringLength проверяет длину строки в символах
func (v *Validator) ValidateStringLength(value, fieldName string, min, max int) error {
	length := len([]rune(value))
	if length < min {
		return fieldError(fieldName, fmt.Sprintf("debe tener al menos %d caracteres", min))
	}
	if max > 0 && length > max {
		return fieldError(fieldName, fmt.Sprintf("no debe exceder %d caracteres", max))
	}
	return nil
}

// ValidateID проверяет положительный идентификатор записи
func (v *Validator) ValidateID(id int64, fieldName string) error {
	if id <= 0 {
		return fieldError(fieldName, fmt.Sprintf("identificador inválido: %d", id))
	}
	return nil
}

// ValidateUUID проверяет формат UUID (токены бэкенда выдаются как UUID)
func (v *Validator) ValidateUUID(value string, fieldName string) error {
	if value == "" {
		return fieldError(fieldName, "es requerido")
	}
	if _, err := uuid.Parse(value); err != nil {
		return fieldError(fieldName, "formato UUID inválido")
	}
	return nil
}
