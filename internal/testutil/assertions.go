package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies an {"error": message} response
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body struct {
		Error string `json:"error"`
	}
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, expectedMessage, body.Error, "error message mismatch")
}

// AssertValidationError verifies a validation failure that names field
func AssertValidationError(t *testing.T, resp *http.Response, field string) {
	t.Helper()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unexpected status code")

	var body struct {
		Error   string              `json:"error"`
		Details map[string][]string `json:"details"`
	}
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, "Validation failed", body.Error)
	assert.NotEmpty(t, body.Details[field], "expected validation message for %s, got %v", field, body.Details)
}

// FindCookie returns the named cookie set by resp, or nil
func FindCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
