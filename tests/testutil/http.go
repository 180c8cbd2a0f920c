// Package testutil holds helpers shared by the HTTP-level tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the decoded response body with data left raw
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

// APIClient sends requests straight to an http.Handler
type APIClient struct {
	t       *testing.T
	handler http.Handler
	headers map[string]string
}

// NewAPIClient creates a client for handler
func NewAPIClient(t *testing.T, handler http.Handler) *APIClient {
	return &APIClient{t: t, handler: handler, headers: map[string]string{}}
}

// WithHeader returns a copy of the client that sends an extra header
func (c *APIClient) WithHeader(key, value string) *APIClient {
	headers := make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	headers[key] = value
	return &APIClient{t: c.t, handler: c.handler, headers: headers}
}

// Do sends a request with an optional JSON body and decodes the envelope
func (c *APIClient) Do(method, path string, body any) (*httptest.ResponseRecorder, Envelope) {
	c.t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = ToJSONReader(c.t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var env Envelope
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// DataAs decodes the envelope data into T
func DataAs[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// AssertSuccessResponse checks status and the success flag
func AssertSuccessResponse(t *testing.T, w *httptest.ResponseRecorder, env Envelope, status int) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
}

// AssertErrorResponse checks status and the API error code
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, env Envelope, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	assert.False(t, env.Success)
	if assert.NotNil(t, env.Error) {
		assert.Equal(t, code, env.Error.Code)
	}
}

// ToJSONReader encodes v as a request body
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()
	if s, ok := v.(string); ok {
		return bytes.NewBufferString(s)
	}
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}
