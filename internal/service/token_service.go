package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/Athul-13/tablespot-api/internal/config"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"

	defaultExpiry = 15 * time.Minute
)

var (
	ErrTokenSignature        = errors.New("token signature invalid")
	ErrTokenExpiredSignature = errors.New("token signature expired")
)

var expiryPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// Claims are the identity fields carried by access and refresh tokens.
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  ParseExpiry(cfg.JWTExpiresIn),
		refreshTTL: ParseExpiry(cfg.JWTRefreshExpiresIn),
		now:        time.Now,
	}
}

// ParseExpiry converts strings such as "15m" or "7d" to a duration. Anything
// not matching <digits><s|m|h|d>, or too large to represent, falls back to
// 15 minutes.
func ParseExpiry(s string) time.Duration {
	match := expiryPattern.FindStringSubmatch(s)
	if match == nil {
		return defaultExpiry
	}
	value, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return defaultExpiry
	}

	var unit time.Duration
	switch match[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	default:
		return defaultExpiry
	}
	// Values that would overflow a Duration are treated as malformed.
	if value > math.MaxInt64/int64(unit) {
		return defaultExpiry
	}
	return time.Duration(value) * unit
}

func (s *TokenService) SignAccess(user *domain.AuthUser) (string, error) {
	return s.sign(user, PurposeAccess, s.accessTTL)
}

func (s *TokenService) SignRefresh(user *domain.AuthUser) (string, error) {
	return s.sign(user, PurposeRefresh, s.refreshTTL)
}

func (s *TokenService) sign(user *domain.AuthUser, purpose string, ttl time.Duration) (string, error) {
	jti, err := generateRawToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := &Claims{
		Email:   user.Email,
		Name:    user.Name,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

func (s *TokenService) VerifyAccess(tokenString string) (*Claims, error) {
	return s.verify(tokenString, PurposeAccess)
}

func (s *TokenService) VerifyRefresh(tokenString string) (*Claims, error) {
	return s.verify(tokenString, PurposeRefresh)
}

func (s *TokenService) verify(tokenString, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpiredSignature
		}
		return nil, ErrTokenSignature
	}
	if !token.Valid || claims.Purpose != purpose {
		return nil, ErrTokenSignature
	}
	return claims, nil
}

// AccessTokenMaxAge is the access token lifetime in seconds, for cookie Max-Age.
func (s *TokenService) AccessTokenMaxAge() int {
	return int(s.accessTTL / time.Second)
}

// RefreshTokenMaxAge is the refresh token lifetime in seconds, for cookie Max-Age.
func (s *TokenService) RefreshTokenMaxAge() int {
	return int(s.refreshTTL / time.Second)
}

func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// HashToken returns the hex SHA-256 digest under which opaque tokens are stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// generateRawToken returns 32 random bytes, hex encoded.
func generateRawToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
