// Package access решает, может ли пользователь открыть маршрут с заданными ролями.
package access

import (
	"NexusPlatform/services/console/internal/domain"
)

// HasRoleAccess возвращает true, если роли не требуются (nil, пусто или "all").
// Иначе доступ есть только у загруженного пользователя, чья роль входит в список.
// Без пользователя или без имени роли доступ запрещен.
func HasRoleAccess(required []string, user *domain.UserProfile) bool {
	if domain.RoleSet(required).AllowsAnyone() {
		return true
	}
	if user == nil || user.RolNombre == "" {
		return false
	}
	return domain.RoleSet(required).Contains(user.RolNombre)
}

// UserSource источник текущего пользователя (хранилище сессии)
type UserSource interface {
	User() *domain.UserProfile
}

// Evaluator привязывает HasRoleAccess к источнику пользователя
type Evaluator struct {
	users UserSource
}

// NewEvaluator создает Evaluator
func NewEvaluator(users UserSource) *Evaluator {
	return &Evaluator{users: users}
}

// HasRoleAccess проверяет доступ текущего пользователя
func (e *Evaluator) HasRoleAccess(required []string) bool {
	var user *domain.UserProfile
	if e.users != nil {
		user = e.users.User()
	}
	return HasRoleAccess(required, user)
}

// Filter оставляет только маршруты, доступные текущему пользователю
func (e *Evaluator) Filter(entries []domain.RouteEntry) []domain.RouteEntry {
	var user *domain.UserProfile
	if e.users != nil {
		user = e.users.User()
	}
	out := make([]domain.RouteEntry, 0, len(entries))
	for _, entry := range entries {
		if HasRoleAccess(entry.Meta.Roles, user) {
			out = append(out, entry)
		}
	}
	return out
}
