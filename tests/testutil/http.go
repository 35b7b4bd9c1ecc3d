package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Do sends a JSON request through an engine and returns the recorder.
// A nil body sends no payload; headers are applied as given.
func Do(t *testing.T, engine *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// Bearer returns the header pair for an Authorization bearer token
func Bearer(token string) []string {
	return []string{"Authorization", "Bearer " + token}
}

// Decode parses the response envelope
func Decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "parse JSON response: %s", w.Body.String())
	return out
}

// DecodeData parses the envelope's data member into T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "parse JSON response: %s", w.Body.String())
	return env.Data
}

// AssertSuccess checks status 2xx and success=true
func AssertSuccess(t *testing.T, w *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := Decode(t, w)
	assert.Equal(t, true, resp["success"])
	return resp
}

// AssertError checks the status and the error code of a failure envelope
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) map[string]any {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	resp := Decode(t, w)
	assert.Equal(t, false, resp["success"])
	errObj, ok := resp["error"].(map[string]any)
	require.True(t, ok, "error object in response")
	assert.Equal(t, code, errObj["code"])
	return errObj
}

