package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"NexusPlatform/services/console/internal/domain"
)

type staticUser struct {
	user *domain.UserProfile
}

func (s staticUser) User() *domain.UserProfile { return s.user }

func TestHasRoleAccess(t *testing.T) {
	admin := &domain.UserProfile{ID: 1, RolNombre: domain.RoleAdministrador}
	tecnico := &domain.UserProfile{ID: 2, RolNombre: domain.RoleTecnico}
	noRole := &domain.UserProfile{ID: 3}

	tests := []struct {
		name     string
		required []string
		user     *domain.UserProfile
		want     bool
	}{
		{"nil roles with user", nil, tecnico, true},
		{"nil roles without user", nil, nil, true},
		{"empty roles with user", []string{}, tecnico, true},
		{"empty roles without user", []string{}, nil, true},
		{"all sentinel without user", []string{domain.RoleAll}, nil, true},
		{"all sentinel mixed", []string{domain.RoleAdministrador, domain.RoleAll}, tecnico, true},
		{"admin only as admin", []string{domain.RoleAdministrador}, admin, true},
		{"admin only as tecnico", []string{domain.RoleAdministrador}, tecnico, false},
		{"admin only without user", []string{domain.RoleAdministrador}, nil, false},
		{"admin only user without role", []string{domain.RoleAdministrador}, noRole, false},
		{"multi role member", []string{domain.RoleSupSistemas, domain.RoleTecnico}, tecnico, true},
		{"case sensitive", []string{"administrador"}, admin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasRoleAccess(tt.required, tt.user))
		})
	}
}

func TestEvaluator(t *testing.T) {
	e := NewEvaluator(staticUser{user: &domain.UserProfile{RolNombre: domain.RoleGerencia}})
	assert.True(t, e.HasRoleAccess(nil))
	assert.True(t, e.HasRoleAccess([]string{domain.RoleGerencia, domain.RoleTecnico}))
	assert.False(t, e.HasRoleAccess([]string{domain.RoleAdministrador}))

	anonymous := NewEvaluator(staticUser{})
	assert.True(t, anonymous.HasRoleAccess([]string{domain.RoleAll}))
	assert.False(t, anonymous.HasRoleAccess([]string{domain.RoleGerencia}))
}

func TestEvaluator_Filter(t *testing.T) {
	entries := []domain.RouteEntry{
		{Path: "/", Meta: domain.RouteMeta{Roles: domain.RoleSet{domain.RoleAll}}},
		{Path: "/admin/roles", Meta: domain.RouteMeta{Roles: domain.RoleSet{domain.RoleAdministrador}}},
		{Path: "/centro-servicios/tickets", Meta: domain.RouteMeta{Roles: domain.RoleSet{domain.RoleTecnico}}},
	}

	e := NewEvaluator(staticUser{user: &domain.UserProfile{RolNombre: domain.RoleTecnico}})
	got := e.Filter(entries)
	paths := make([]string, 0, len(got))
	for _, r := range got {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"/", "/centro-servicios/tickets"}, paths)
}
