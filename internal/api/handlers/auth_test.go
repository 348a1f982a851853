package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/Athul-13/tablespot-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Signup(t *testing.T) {
	ts := testutil.NewTestServer(t)
	client := ts.NewClient(t)

	tests := []struct {
		name           string
		request        map[string]any
		setup          func()
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful signup",
			request: map[string]any{
				"name":     "Alice",
				"email":    " Alice@Example.com ",
				"password": "secret1",
				"phone":    "555-0100",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var body map[string]map[string]any
				testutil.AssertJSONResponse(t, resp, &body)
				assert.Equal(t, "alice@example.com", body["user"]["email"])
				assert.Equal(t, "Alice", body["user"]["name"])
				assert.NotContains(t, body["user"], "passwordHash")
				assert.NotContains(t, body["user"], "password")
				assert.Empty(t, resp.Cookies(), "signup does not log in")
			},
		},
		{
			name:           "missing fields",
			request:        map[string]any{},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var body struct {
					Error   string              `json:"error"`
					Details map[string][]string `json:"details"`
				}
				testutil.AssertJSONResponse(t, resp, &body)
				assert.Equal(t, "Validation failed", body.Error)
				assert.Equal(t, []string{"Name is required"}, body.Details["name"])
				assert.Equal(t, []string{"Email is required"}, body.Details["email"])
				assert.Equal(t, []string{"Password is required"}, body.Details["password"])
			},
		},
		{
			name: "invalid email",
			request: map[string]any{
				"name":     "Bob",
				"email":    "not-an-email",
				"password": "secret1",
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertValidationError(t, resp, "email")
			},
		},
		{
			name: "short password",
			request: map[string]any{
				"name":     "Bob",
				"email":    "bob@example.com",
				"password": "12345",
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertValidationError(t, resp, "password")
			},
		},
		{
			name: "duplicate email",
			request: map[string]any{
				"name":     "Carol",
				"email":    "CAROL@example.com",
				"password": "secret1",
			},
			setup: func() {
				testutil.NewUserBuilder().WithEmail("carol@example.com").Build(t, ts.DB.DB)
			},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, domain.ErrEmailAlreadyExists.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			resp := testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/signup"), tt.request)
			defer resp.Body.Close()

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_InvalidBody(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Post(ts.APIURL("/auth/login"), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid request body")
}

func TestAuthHandler_LoginSetsCookies(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().WithEmail("alice@example.com").WithPassword("secret1").Build(t, ts.DB.DB)
	client := ts.NewClient(t)

	resp := testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/login"), map[string]string{
		"email":    "alice@example.com",
		"password": "secret1",
	})
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	access := testutil.FindCookie(resp, "accessToken")
	refresh := testutil.FindCookie(resp, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 15*60, access.MaxAge)
	assert.Equal(t, 7*24*60*60, refresh.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	var body testutil.UserResponse
	testutil.AssertJSONResponse(t, resp, &body)
	assert.Equal(t, "alice@example.com", body.User.Email)

	me, err := client.Get(ts.APIURL("/auth/me"))
	require.NoError(t, err)
	defer me.Body.Close()
	testutil.AssertStatusCode(t, me, http.StatusOK)
}

func TestAuthHandler_LoginFailuresLookAlike(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().WithEmail("alice@example.com").WithPassword("secret1").Build(t, ts.DB.DB)
	client := ts.NewClient(t)

	for _, creds := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong"},
		{"email": "nobody@example.com", "password": "secret1"},
	} {
		resp := testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/login"), creds)
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid email or password")
		resp.Body.Close()
	}
}

func TestAuthHandler_RefreshFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, client := testutil.NewUserBuilder().WithEmail("a@x.com").WithPassword("secret1").BuildAndLogin(t, ts)

	t.Run("without cookie", func(t *testing.T) {
		resp := testutil.DoJSON(t, ts.NewClient(t), http.MethodPost, ts.APIURL("/auth/refresh"), nil)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Refresh token required")
	})

	t.Run("rotates the cookie", func(t *testing.T) {
		resp := testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/refresh"), nil)
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var body testutil.UserResponse
		testutil.AssertJSONResponse(t, resp, &body)
		assert.Equal(t, "a@x.com", body.User.Email)
		require.NotNil(t, testutil.FindCookie(resp, "refreshToken"))
	})

	t.Run("replayed token is rejected", func(t *testing.T) {
		replay := ts.NewClient(t)
		_, session := testutil.NewUserBuilder().WithEmail("b@x.com").BuildAndLogin(t, ts)

		var original *http.Cookie
		for _, c := range session.Jar.Cookies(mustURL(t, ts.APIURL("/"))) {
			if c.Name == "refreshToken" {
				original = c
			}
		}
		require.NotNil(t, original)

		resp := testutil.DoJSON(t, session, http.MethodPost, ts.APIURL("/auth/refresh"), nil)
		resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		req := testutil.NewJSONRequest(t, http.MethodPost, ts.APIURL("/auth/refresh"), nil, "")
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: original.Value})
		resp, err := replay.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, domain.ErrTokenExpired.Message)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, client := testutil.NewUserBuilder().BuildAndLogin(t, ts)

	for range 2 {
		resp := testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/logout"), nil)
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		var body map[string]bool
		testutil.AssertJSONResponse(t, resp, &body)
		assert.True(t, body["ok"])
		resp.Body.Close()
	}

	me, err := client.Get(ts.APIURL("/auth/me"))
	require.NoError(t, err)
	defer me.Body.Close()
	testutil.AssertErrorResponse(t, me, http.StatusUnauthorized, "Unauthorized")
}

func TestAuthHandler_LogoutAll(t *testing.T) {
	ts := testutil.NewTestServer(t)
	builder := testutil.NewUserBuilder().WithEmail("multi@example.com").WithPassword("secret1")
	_, first := builder.BuildAndLogin(t, ts)

	second := ts.NewClient(t)
	resp := testutil.DoJSON(t, second, http.MethodPost, ts.APIURL("/auth/login"), map[string]string{
		"email": "multi@example.com", "password": "secret1",
	})
	resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = testutil.DoJSON(t, first, http.MethodPost, ts.APIURL("/auth/logout-all"), nil)
	resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = testutil.DoJSON(t, second, http.MethodPost, ts.APIURL("/auth/refresh"), nil)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	ts := testutil.NewTestServer(t)
	testutil.NewUserBuilder().WithEmail("alice@example.com").WithPassword("secret1").Build(t, ts.DB.DB)
	client := ts.NewClient(t)

	var messages []string
	for _, email := range []string{"alice@example.com", "nobody@example.com"} {
		resp := testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/forgot-password"), map[string]string{"email": email})
		testutil.AssertStatusCode(t, resp, http.StatusOK)
		var body map[string]string
		testutil.AssertJSONResponse(t, resp, &body)
		messages = append(messages, body["message"])
		resp.Body.Close()
	}
	assert.Equal(t, messages[0], messages[1], "known and unknown emails must be indistinguishable")

	raw, ok := ts.Notifier.LastToken("alice@example.com")
	require.True(t, ok)

	resp := testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/reset-password"), map[string]string{
		"token": raw, "newPassword": "newsecret",
	})
	var body map[string]string
	testutil.AssertJSONResponse(t, resp, &body)
	resp.Body.Close()
	assert.Equal(t, "Password reset successfully", body["message"])

	resp = testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/reset-password"), map[string]string{
		"token": raw, "newPassword": "another1",
	})
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, domain.ErrInvalidToken.Message)
	resp.Body.Close()

	resp = testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/login"), map[string]string{
		"email": "alice@example.com", "password": "newsecret",
	})
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, client := testutil.NewUserBuilder().WithEmail("alice@example.com").WithPassword("secret1").BuildAndLogin(t, ts)

	resp := testutil.DoJSON(t, ts.NewClient(t), http.MethodPost, ts.APIURL("/auth/change-password"), map[string]string{
		"currentPassword": "secret1", "newPassword": "newsecret",
	})
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/change-password"), map[string]string{
		"currentPassword": "wrong", "newPassword": "newsecret",
	})
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, domain.ErrInvalidCredentials.Message)
	resp.Body.Close()

	resp = testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/change-password"), map[string]string{
		"currentPassword": "secret1", "newPassword": "newsecret",
	})
	var body map[string]string
	testutil.AssertJSONResponse(t, resp, &body)
	resp.Body.Close()
	assert.Equal(t, "Password changed successfully", body["message"])
}

func TestAuthHandler_Activity(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, client := testutil.NewUserBuilder().BuildAndLogin(t, ts)

	resp, err := client.Get(ts.APIURL("/auth/activity?limit=5"))
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var events []domain.AuthEvent
	testutil.AssertJSONResponse(t, resp, &events)
	require.Len(t, events, 2)
	assert.Equal(t, domain.AuthActionLoginSuccess, events[0].Action)
	assert.Equal(t, user.ID, *events[0].UserID)
	assert.Equal(t, domain.AuthActionSignup, events[1].Action)
}

func TestHealth(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.BaseURL() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertJSONResponse(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthHandler_StaleAccessTokenDoesNotBlockSession(t *testing.T) {
	ts := testutil.NewTestServer(t)

	staleBearer := func(r *http.Request) { r.Header.Set("Authorization", "Bearer expired.or.garbage") }
	staleCookie := func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "accessToken", Value: "stale"}) }

	tests := []struct {
		name  string
		path  string
		stale func(*http.Request)
	}{
		{name: "refresh with stale bearer", path: "/auth/refresh", stale: staleBearer},
		{name: "refresh with stale cookie", path: "/auth/refresh", stale: staleCookie},
		{name: "logout with stale bearer", path: "/auth/logout", stale: staleBearer},
		{name: "logout with stale cookie", path: "/auth/logout", stale: staleCookie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, session := testutil.NewUserBuilder().BuildAndLogin(t, ts)
			refresh := refreshCookie(t, ts, session)

			req := testutil.NewJSONRequest(t, http.MethodPost, ts.APIURL(tt.path), nil, "")
			req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh})
			tt.stale(req)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			testutil.AssertStatusCode(t, resp, http.StatusOK)
		})
	}

	t.Run("public reads ignore a stale cookie", func(t *testing.T) {
		owner, _ := testutil.NewUserBuilder().Build(t, ts.DB.DB)
		restaurant := testutil.NewRestaurantBuilder().Build(t, ts.DB.DB, owner)

		for _, path := range []string{"/restaurants", "/restaurants/" + restaurant.ID.String() + "/ratings"} {
			req := testutil.NewJSONRequest(t, http.MethodGet, ts.APIURL(path), nil, "")
			staleCookie(req)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			testutil.AssertStatusCode(t, resp, http.StatusOK)
			resp.Body.Close()
		}
	})

	t.Run("protected routes still reject it", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, "")
		staleCookie(req)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, domain.ErrInvalidToken.Message)
	})
}

func TestAuthHandler_PasswordByteLimit(t *testing.T) {
	ts := testutil.NewTestServer(t)
	// 40 runes, 80 bytes
	long := strings.Repeat("é", 40)

	t.Run("signup", func(t *testing.T) {
		resp := testutil.DoJSON(t, ts.NewClient(t), http.MethodPost, ts.APIURL("/auth/signup"), map[string]string{
			"name": "Multi", "email": "multi@example.com", "password": long,
		})
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusBadRequest)

		var body struct {
			Details map[string][]string `json:"details"`
		}
		testutil.AssertJSONResponse(t, resp, &body)
		assert.Equal(t, []string{"Password must be at most 72 bytes"}, body.Details["password"])
	})

	t.Run("reset password", func(t *testing.T) {
		resp := testutil.DoJSON(t, ts.NewClient(t), http.MethodPost, ts.APIURL("/auth/reset-password"), map[string]string{
			"token": "whatever", "newPassword": long,
		})
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
		testutil.AssertValidationError(t, resp, "newPassword")
	})

	t.Run("change password", func(t *testing.T) {
		_, client := testutil.NewUserBuilder().WithPassword("secret1").BuildAndLogin(t, ts)
		resp := testutil.DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/change-password"), map[string]string{
			"currentPassword": "secret1", "newPassword": long,
		})
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
		testutil.AssertValidationError(t, resp, "newPassword")
	})

	t.Run("multibyte within the limit", func(t *testing.T) {
		resp := testutil.DoJSON(t, ts.NewClient(t), http.MethodPost, ts.APIURL("/auth/signup"), map[string]string{
			"name": "Multi", "email": "ok@example.com", "password": strings.Repeat("é", 36),
		})
		defer resp.Body.Close()
		testutil.AssertStatusCode(t, resp, http.StatusCreated)
	})
}

func refreshCookie(t *testing.T, ts *testutil.TestServer, client *http.Client) string {
	t.Helper()
	for _, c := range client.Jar.Cookies(mustURL(t, ts.APIURL("/"))) {
		if c.Name == "refreshToken" {
			return c.Value
		}
	}
	t.Fatal("no refresh cookie in jar")
	return ""
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
