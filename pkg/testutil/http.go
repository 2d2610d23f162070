// Package testutil provides helpers for exercising HTTP handlers in tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewRequest builds a bodyless request for handler tests.
func NewRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewJSONRequest builds a request carrying a raw JSON body.
func NewJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest runs the request through the handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// DecodeResponse unmarshals the recorded JSON body into T, failing the test
// when the body does not parse.
func DecodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "unmarshal response: %s", rec.Body.String())
	return out
}

// AssertStatus asserts the recorded status code, printing the body on mismatch.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	assert.Equal(t, want, rec.Code, "unexpected status, body: %s", rec.Body.String())
}

// AssertErrorCode asserts the body carries the given code in the
// {"error": ...} envelope.
func AssertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	body := DecodeResponse[map[string]string](t, rec)
	assert.Equal(t, want, body["error"], "unexpected error code")
}

// AssertStatusAndError asserts the status code and the error envelope together.
func AssertStatusAndError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	AssertStatus(t, rec, wantStatus)
	AssertErrorCode(t, rec, wantCode)
}
