package service

import (
	"testing"
	"time"

	"github.com/Athul-13/tablespot-api/internal/config"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(now *time.Time) *TokenService {
	s := NewTokenService(&config.Config{
		JWTSecret:           "test-jwt-secret-key-for-testing-only",
		JWTExpiresIn:        "15m",
		JWTRefreshExpiresIn: "7d",
	})
	s.now = func() time.Time { return *now }
	return s
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"15m", 15 * time.Minute},
		{"2h", 2 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"", 15 * time.Minute},
		{"15", 15 * time.Minute},
		{"1w", 15 * time.Minute},
		{"-5m", 15 * time.Minute},
		{"1.5h", 15 * time.Minute},
		{"106751d", 106751 * 24 * time.Hour},
		{"200000d", 15 * time.Minute},
		{"999999999d", 15 * time.Minute},
		{"99999999999999999999s", 15 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExpiry(tt.in))
		})
	}
}

func TestTokenService_SignAndVerify(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(&now)
	user := &domain.AuthUser{ID: uuid.New(), Email: "a@x.com", Name: "Alice"}

	access, err := s.SignAccess(user)
	require.NoError(t, err)
	refresh, err := s.SignRefresh(user)
	require.NoError(t, err)

	claims, err := s.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Name, claims.Name)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.WithinDuration(t, now.Add(15*time.Minute), claims.ExpiresAt.Time, 0)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	claims, err = s.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, PurposeRefresh, claims.Purpose)
	assert.WithinDuration(t, now.Add(7*24*time.Hour), claims.ExpiresAt.Time, 0)

	t.Run("purpose is enforced", func(t *testing.T) {
		_, err := s.VerifyRefresh(access)
		assert.ErrorIs(t, err, ErrTokenSignature)
		_, err = s.VerifyAccess(refresh)
		assert.ErrorIs(t, err, ErrTokenSignature)
	})

	t.Run("tokens are unique within the same second", func(t *testing.T) {
		again, err := s.SignRefresh(user)
		require.NoError(t, err)
		assert.NotEqual(t, refresh, again)
	})
}

func TestTokenService_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(&now)
	user := &domain.AuthUser{ID: uuid.New(), Email: "a@x.com", Name: "Alice"}

	access, err := s.SignAccess(user)
	require.NoError(t, err)

	now = now.Add(14 * time.Minute)
	_, err = s.VerifyAccess(access)
	assert.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.VerifyAccess(access)
	assert.ErrorIs(t, err, ErrTokenExpiredSignature)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	now := time.Now()
	s := newTestTokenService(&now)

	otherSecret := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := otherSecret.SignedString([]byte("some-other-secret-value"))
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Purpose:          PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
	})
	unbounded, err := noExpiry.SignedString(s.secret)
	require.NoError(t, err)

	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	unsigned, err := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": signed,
		"no expiry":    unbounded,
		"alg none":     unsigned,
		"garbage":      "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.VerifyAccess(token)
			assert.ErrorIs(t, err, ErrTokenSignature)
		})
	}
}

func TestTokenService_MaxAge(t *testing.T) {
	now := time.Now()
	s := newTestTokenService(&now)

	assert.Equal(t, 15*60, s.AccessTokenMaxAge())
	assert.Equal(t, 7*24*60*60, s.RefreshTokenMaxAge())
	assert.Equal(t, 7*24*time.Hour, s.RefreshTTL())
}

func TestHashToken(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashToken(""),
	)
	assert.Len(t, HashToken("abc"), 64)

	raw, err := generateRawToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.NotEqual(t, HashToken(raw), raw)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)

	hash, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, h.Compare("secret1", hash))
	assert.False(t, h.Compare("secret2", hash))
	assert.False(t, h.Compare("secret1", "not-a-bcrypt-hash"))
}
