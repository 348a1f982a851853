package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Athul-13/tablespot-api/internal/api/middleware"
	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/service"
	"github.com/Athul-13/tablespot-api/internal/testutil"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	json.NewEncoder(w).Encode(user)
}

func TestAuth(t *testing.T) {
	tokens := service.NewTokenService(testutil.TestConfig())
	user := &domain.AuthUser{ID: uuid.New(), Email: "alice@example.com", Name: "Alice"}

	access, err := tokens.SignAccess(user)
	require.NoError(t, err)
	refresh, err := tokens.SignRefresh(user)
	require.NoError(t, err)

	handler := middleware.Auth(tokens)(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
		wantUser   bool
	}{
		{
			name:       "no credentials",
			prepare:    func(*http.Request) {},
			wantStatus: http.StatusOK,
		},
		{
			name: "cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: access})
			},
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name: "bearer header",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+access)
			},
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name: "cookie wins over header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: access})
				r.Header.Set("Authorization", "Bearer garbage")
			},
			wantStatus: http.StatusOK,
			wantUser:   true,
		},
		{
			name: "invalid token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer garbage")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "refresh token is not an access token",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+refresh)
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			switch {
			case tt.wantStatus == http.StatusUnauthorized:
				assert.JSONEq(t, `{"error":"Invalid token"}`, rec.Body.String())
			case tt.wantUser:
				var got domain.AuthUser
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, *user, got)
			default:
				assert.Equal(t, "anonymous", rec.Body.String())
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	handler := middleware.RequireAuth(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	user := &domain.AuthUser{ID: uuid.New(), Email: "a@x.com", Name: "A"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), user))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAuth_IgnoresBadCredentials(t *testing.T) {
	tokens := service.NewTokenService(testutil.TestConfig())
	user := &domain.AuthUser{ID: uuid.New(), Email: "alice@example.com", Name: "Alice"}
	access, err := tokens.SignAccess(user)
	require.NoError(t, err)

	handler := middleware.OptionalAuth(tokens)(http.HandlerFunc(echoUser))

	for _, token := range []string{"garbage", "expired.or.garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var got domain.AuthUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *user, got)
}

func TestRequestLogger_IncludesUser(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	tokens := service.NewTokenService(testutil.TestConfig())
	user := &domain.AuthUser{ID: uuid.New(), Email: "alice@example.com", Name: "Alice"}
	access, err := tokens.SignAccess(user)
	require.NoError(t, err)

	handler := chiMiddleware.RequestID(
		middleware.RequestLogger(logger)(
			middleware.Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})),
		),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/api/v1/things", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, user.ID.String(), entry["user_id"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestClientInfo(t *testing.T) {
	var got service.ClientInfo
	handler := middleware.ClientInfo(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = service.ClientInfoFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7"
	req.Header.Set("User-Agent", "agent/1.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "198.51.100.7", got.IP)
	assert.Equal(t, "agent/1.0", got.UserAgent)
}

func TestCORS(t *testing.T) {
	handler := middleware.CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
