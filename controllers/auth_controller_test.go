package controllers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitflow/backend/models"
	"github.com/habitflow/backend/utils"
)

type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	a := NewAuthController(db)

	ctx, w := authedRequest(t, "", http.MethodPost, "/api/v1/auth/register", gin.H{
		"email": "alice@example.com", "password": "s3cret-pass", "displayName": "Alice",
	})
	a.Register(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res tokenResponse
	decodeData(t, w, &res)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, models.AuthMethodEmail, res.User.AuthMethod)

	claims, err := utils.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Empty(t, claims.Role)

	t.Run("duplicate email rejected", func(t *testing.T) {
		ctx, w := authedRequest(t, "", http.MethodPost, "/api/v1/auth/register", gin.H{
			"email": "alice@example.com", "password": "another-pass",
		})
		a.Register(ctx)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("login with correct password", func(t *testing.T) {
		ctx, w := authedRequest(t, "", http.MethodPost, "/api/v1/auth/login", gin.H{
			"email": "Alice@Example.com", "password": "s3cret-pass",
		})
		a.Login(ctx)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("login with wrong password", func(t *testing.T) {
		ctx, w := authedRequest(t, "", http.MethodPost, "/api/v1/auth/login", gin.H{
			"email": "alice@example.com", "password": "wrong",
		})
		a.Login(ctx)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	db := newTestDB(t)
	a := NewAuthController(db)

	ctx, w := authedRequest(t, "", http.MethodPost, "/api/v1/auth/register", gin.H{
		"email": "not-an-email", "password": "s3cret-pass",
	})
	a.Register(ctx)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnonymousAccount(t *testing.T) {
	db := newTestDB(t)
	a := NewAuthController(db)

	ctx, w := authedRequest(t, "", http.MethodPost, "/api/v1/auth/anonymous", nil)
	a.Anonymous(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res tokenResponse
	decodeData(t, w, &res)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, models.AuthMethodAnonymous, res.User.AuthMethod)
	assert.True(t, strings.HasPrefix(res.User.Email, "anon_"))
	assert.True(t, strings.HasSuffix(res.User.Email, "@anonymous.local"))

	// Two guests never collide.
	ctx, w = authedRequest(t, "", http.MethodPost, "/api/v1/auth/anonymous", nil)
	a.Anonymous(ctx)
	require.Equal(t, http.StatusOK, w.Code)
	var second tokenResponse
	decodeData(t, w, &second)
	assert.NotEqual(t, res.User.Email, second.User.Email)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	a := NewAuthController(db)

	hash, err := utils.HashPassword("old-pass-123")
	require.NoError(t, err)
	user := &models.User{
		Email: "bob@example.com", DisplayName: "Bob",
		AuthMethod: models.AuthMethodEmail, PasswordHash: hash,
	}
	require.NoError(t, db.Create(user).Error)

	ctx, w := authedRequest(t, user.ID, http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"currentPassword": "wrong", "newPassword": "new-pass-123",
	})
	a.ChangePassword(ctx)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ctx, w = authedRequest(t, user.ID, http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"currentPassword": "old-pass-123", "newPassword": "new-pass-123",
	})
	a.ChangePassword(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.True(t, utils.CheckPassword(reloaded.PasswordHash, "new-pass-123"))
}

func TestChangePasswordRejectedForAnonymous(t *testing.T) {
	db := newTestDB(t)
	a := NewAuthController(db)

	user := &models.User{
		Email: "anon_1_ab@anonymous.local", DisplayName: "Guest",
		AuthMethod: models.AuthMethodAnonymous,
	}
	require.NoError(t, db.Create(user).Error)

	ctx, w := authedRequest(t, user.ID, http.MethodPost, "/api/v1/auth/change-password", gin.H{
		"currentPassword": "x", "newPassword": "new-pass-123",
	})
	a.ChangePassword(ctx)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeTouchesLastActive(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	a := NewAuthController(db)
	// Frozen well past any real creation timestamp.
	a.now = clockAt(t, "2030-01-01")

	ctx, w := authedRequest(t, user.ID, http.MethodGet, "/api/v1/auth/me", nil)
	a.Me(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.True(t, reloaded.LastActive.After(user.LastActive))
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	a := NewAuthController(db)

	ctx, w := authedRequest(t, user.ID, http.MethodPatch, "/api/v1/auth/profile", gin.H{
		"displayName": "New Name", "avatarUrl": "https://example.com/a.png",
	})
	a.UpdateProfile(ctx)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, "New Name", reloaded.DisplayName)
	assert.Equal(t, "https://example.com/a.png", reloaded.AvatarURL)
}
