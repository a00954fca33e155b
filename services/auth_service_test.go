package services

import (
	"errors"
	"testing"
	"time"

	"backend_extintores/models"
	"backend_extintores/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	admin := testutils.CreateTestUser(t, env.db, "admin@example.com", models.RoleAdmin)
	inactive := testutils.CreateTestUser(t, env.db, "baja@example.com", models.RoleViewer)
	require.NoError(t, env.db.Model(inactive).Update("activo", false).Error)

	result, err := env.auth.Login(" ADMIN@example.com ", testutils.TestPassword)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, result.User.ID)
	assert.Equal(t, int64(24*60*60), result.ExpiresIn)
	require.NotNil(t, result.User.LastLogin)

	claims, err := env.auth.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "admin@example.com", claims.Email)

	var stored models.User
	require.NoError(t, env.db.First(&stored, admin.ID).Error)
	assert.NotNil(t, stored.LastLogin)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nadie@example.com", testutils.TestPassword},
		{"wrong password", "admin@example.com", "incorrecta"},
		{"inactive", "baja@example.com", testutils.TestPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(tt.email, tt.password)
			assert.True(t, IsKind(err, KindUnauthorized))
		})
	}
}

func TestValidateToken(t *testing.T) {
	env := newTestEnv(t)
	user := testutils.CreateTestUser(t, env.db, "tec@example.com", models.RoleTechnician)

	issued := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	env.auth.Now = func() time.Time { return issued }
	token, err := env.auth.GenerateToken(user)
	require.NoError(t, err)

	env.auth.Now = func() time.Time { return issued.Add(23 * time.Hour) }
	_, err = env.auth.ValidateToken(token)
	assert.NoError(t, err)

	env.auth.Now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = env.auth.ValidateToken(token)
	assert.True(t, errors.Is(err, ErrExpiredToken))

	_, err = env.auth.ValidateToken(token + "x")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestAuthenticateInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	user := testutils.CreateTestUser(t, env.db, "tec@example.com", models.RoleTechnician)
	token, err := env.auth.GenerateToken(user)
	require.NoError(t, err)

	current, _, err := env.auth.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	require.NoError(t, env.db.Model(user).Update("activo", false).Error)
	_, _, err = env.auth.Authenticate(token)
	assert.True(t, errors.Is(err, ErrInactiveUser))
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := ExtractTokenFromHeader("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer   "} {
		_, err := ExtractTokenFromHeader(header)
		assert.Error(t, err, header)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := testutils.CreateTestUser(t, env.db, "tec@example.com", models.RoleTechnician)

	err := env.auth.ChangePassword(user.ID, "incorrecta", "nueva-clave-1")
	assert.True(t, IsKind(err, KindUnauthorized))

	err = env.auth.ChangePassword(user.ID, testutils.TestPassword, "corta")
	assert.True(t, IsKind(err, KindValidation))

	require.NoError(t, env.auth.ChangePassword(user.ID, testutils.TestPassword, "nueva-clave-1"))
	_, err = env.auth.Login("tec@example.com", "nueva-clave-1")
	assert.NoError(t, err)
}
