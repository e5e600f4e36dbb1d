package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NexusPlatform/pkg/errors"
)

func TestValidateRequiredFields(t *testing.T) {
	v := NewValidator()
	required := map[string]string{"username": "Usuario", "password": "Contraseña"}

	t.Run("all present", func(t *testing.T) {
		err := v.ValidateRequiredFields(map[string]interface{}{"username": "robert", "password": "x"}, required)
		assert.NoError(t, err)
	})

	t.Run("missing and blank", func(t *testing.T) {
		err := v.ValidateRequiredFields(map[string]interface{}{"username": "   "}, required)
		require.Error(t, err)

		var appErr *errors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errors.ErrValidation, appErr.Code)
		assert.Equal(t, []string{"Contraseña es requerido"}, appErr.Fields["password"])
		assert.Equal(t, []string{"Usuario es requerido"}, appErr.Fields["username"])
		assert.Equal(t, "Contraseña es requerido", appErr.Message)
	})
}

func TestValidateURL(t *testing.T) {
	v := NewValidator()
	schemes := []string{"http", "https"}

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"valid http", "http://localhost:8000/api/", false},
		{"valid https", "https://nexus.example.com/api/", false},
		{"empty", "", true},
		{"wrong scheme", "ftp://nexus", true},
		{"no host", "http:///api", true},
		{"whitespace", "http://nexus .com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateURL(tt.target, schemes)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, errors.ErrValidation, errors.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRoutePath(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/", false},
		{"/admin/roles", false},
		{"/notificaciones/:id", false},
		{"", true},
		{"admin/roles", true},
		{"/admin roles", true},
		{"/admin?x=1", true},
		{"/notificaciones/id:x", true},
		{"/notificaciones/:", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := v.ValidateRoutePath(tt.path)
			assert.Equal(t, tt.wantErr, err != nil, "path %q err %v", tt.path, err)
		})
	}
}

func TestValidateEnum(t *testing.T) {
	v := NewValidator()
	allowed := []string{"informativa", "alerta", "urgente"}

	assert.NoError(t, v.ValidateEnum("alerta", allowed, "nivel"))
	assert.Error(t, v.ValidateEnum("", allowed, "nivel"))

	err := v.ValidateEnum("critica", allowed, "nivel")
	var appErr *errors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "nivel")
}

func TestValidateStringLength(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateStringLength("Mantenimiento", "titulo", 1, 200))
	assert.NoError(t, v.ValidateStringLength("ñandú", "titulo", 5, 5))
	assert.Error(t, v.ValidateStringLength("", "titulo", 1, 200))
	assert.Error(t, v.ValidateStringLength("abcdef", "titulo", 1, 5))
	assert.NoError(t, v.ValidateStringLength("sin límite", "contenido", 1, 0))
}

func TestValidateID(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateID(1, "id"))
	assert.Error(t, v.ValidateID(0, "id"))
	assert.Error(t, v.ValidateID(-3, "id"))
}

func TestValidateUUID(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateUUID("06567153-156a-42ec-b8a5-a7fa2eecf3ee", "token"))
	assert.Error(t, v.ValidateUUID("", "token"))
	assert.Error(t, v.ValidateUUID("not-a-uuid", "token"))
}
