package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	signed, err := tokens.Issue(12, "budi@toko.test", true)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(12), claims.UserID)
	assert.Equal(t, "budi@toko.test", claims.Email)
	assert.True(t, claims.IsAdmin)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokens("other", time.Hour).Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokens("secret", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokens("secret", time.Hour)
	r := gin.New()
	r.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	r.GET("/admin", RequireAuth(tokens), RequireAdmin(nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	customer, _ := tokens.Issue(5, "a@toko.test", false)
	admin, _ := tokens.Issue(1, "admin@toko.test", true)

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/me", "bogus").Code)

	w := do("/me", customer)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":5}`, w.Body.String())

	assert.Equal(t, http.StatusForbidden, do("/admin", customer).Code)
	assert.Equal(t, http.StatusOK, do("/admin", admin).Code)
}

func TestRequireAdmin_RereadsFlag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokens("secret", time.Hour)
	admins := map[int64]bool{1: true}
	lookup := func(_ context.Context, userID int64) (bool, error) {
		if userID == 99 {
			return false, errors.New("db down")
		}
		return admins[userID], nil
	}
	r := gin.New()
	r.GET("/admin", RequireAuth(tokens), RequireAdmin(lookup), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(userID int64) int {
		token, err := tokens.Issue(userID, "admin@toko.test", true)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do(1))

	admins[1] = false
	assert.Equal(t, http.StatusForbidden, do(1), "revoked admin keeps a valid token but loses access")
	assert.Equal(t, http.StatusForbidden, do(2), "deleted account")
	assert.Equal(t, http.StatusServiceUnavailable, do(99))
}
