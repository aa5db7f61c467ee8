package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

func TestTokenManager(t *testing.T) {
	id := storage.Identity{UserID: "8f0e2b5c-2222-4c1e-9a55-000000000001", Role: storage.RoleDriver}

	t.Run("round trip", func(t *testing.T) {
		m := NewTokenManager("secret", time.Hour)

		token, err := m.Issue(id)
		require.NoError(t, err)

		got, err := m.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("expired", func(t *testing.T) {
		m := NewTokenManager("secret", time.Minute)
		issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return issued }

		token, err := m.Issue(id)
		require.NoError(t, err)

		m.now = func() time.Time { return issued.Add(2 * time.Minute) }
		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenManager("secret", time.Hour).Issue(id)
		require.NoError(t, err)

		_, err = NewTokenManager("other", time.Hour).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		m := NewTokenManager("secret", time.Hour)
		claims := &Claims{
			UserID: id.UserID,
			Role:   "courier",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = m.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewTokenManager("secret", time.Hour).Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
