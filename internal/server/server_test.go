package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-pipeline/internal/common/config"
	apperrors "media-pipeline/internal/common/errors"
	"media-pipeline/internal/common/logger"
	"media-pipeline/internal/pipeline/intent"
	"media-pipeline/internal/pipeline/router"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeProcessor struct {
	result *router.Result
	err    error

	req          router.Request
	inputExisted bool
	inputBody    []byte
}

func (f *fakeProcessor) Route(_ context.Context, req router.Request) (*router.Result, error) {
	f.req = req
	data, err := os.ReadFile(req.InputPath)
	f.inputExisted = err == nil
	f.inputBody = data
	return f.result, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, p Processor, opts ...Option) *Server {
	return New(config.ServerConfig{MaxUploadMB: 1, CORSOrigins: []string{"*"}}, p, logger.NewTestLogger(t), opts...)
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

// ==========================
// POST /process Tests
// ==========================

func TestProcess_AudioReturnsJSON(t *testing.T) {
	p := &fakeProcessor{result: &router.Result{
		Kind: router.KindAudio,
		Payload: map[string]interface{}{
			"transcription": map[string]interface{}{"text": "hello", "confidence": 0.5, "timestamps": []interface{}{}},
			"intent":        map[string]interface{}{"intent": "unknown", "params": map[string]string{}},
		},
	}}
	s := newTestServer(t, p)

	rec := serve(s, uploadRequest(t, "Question.WAV", "RIFF", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"transcription":{"text":"hello","confidence":0.5,"timestamps":[]},"intent":{"intent":"unknown","params":{}}}`, rec.Body.String())

	assert.True(t, p.inputExisted)
	assert.Equal(t, []byte("RIFF"), p.inputBody)
	assert.Equal(t, ".wav", filepath.Ext(p.req.InputPath))
	assert.NoFileExists(t, p.req.InputPath)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestProcess_TextReturnsWAV(t *testing.T) {
	p := &fakeProcessor{result: &router.Result{
		Kind:   router.KindText,
		Audio:  []byte("RIFF----WAVEfmt "),
		Intent: &intent.Result{Intent: intent.IntentBookCar, Params: map[string]string{intent.ParamCarMake: "Honda"}},
	}}
	s := newTestServer(t, p)

	rec := serve(s, uploadRequest(t, "reply.txt", "book the Honda", map[string]string{"voice": "english", "rate": " 150 "}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="reply.wav"`, rec.Header().Get("Content-Disposition"))
	assert.JSONEq(t, `{"intent":"book_car","params":{"car_make":"Honda"}}`, rec.Header().Get(intentHeader))
	assert.Equal(t, []byte("RIFF----WAVEfmt "), rec.Body.Bytes())

	require.NotNil(t, p.req.Voice)
	assert.Equal(t, "english", *p.req.Voice)
	require.NotNil(t, p.req.Rate)
	assert.Equal(t, 150, *p.req.Rate)
	assert.NoFileExists(t, p.req.InputPath)
}

func TestProcess_TextWithoutExposedIntent(t *testing.T) {
	p := &fakeProcessor{result: &router.Result{Kind: router.KindText, Audio: []byte("RIFF")}}
	s := newTestServer(t, p)

	rec := serve(s, uploadRequest(t, "a.txt", "hi", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(intentHeader))
	assert.Nil(t, p.req.Voice)
	assert.Nil(t, p.req.Rate)
}

func TestProcess_Errors(t *testing.T) {
	tests := []struct {
		name           string
		filename       string
		fields         map[string]string
		routeErr       error
		expectedStatus int
		expectedError  string
		routed         bool
	}{
		{
			name:           "missing file",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "file is required",
		},
		{
			name:           "non-integer rate",
			filename:       "a.txt",
			fields:         map[string]string{"rate": "fast"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid input: rate must be an integer",
		},
		{
			name:           "unsupported type",
			filename:       "a.pdf",
			routeErr:       apperrors.NewUnsupportedFileTypeError(".pdf"),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Unsupported file type.",
			routed:         true,
		},
		{
			name:           "engine failure",
			filename:       "a.mp3",
			routeErr:       apperrors.NewTranscriptionError(errors.New("model missing")),
			expectedStatus: http.StatusInternalServerError,
			routed:         true,
		},
		{
			name:           "untyped failure",
			filename:       "a.png",
			routeErr:       errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "boom",
			routed:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProcessor{err: tt.routeErr}
			s := newTestServer(t, p)

			rec := serve(s, uploadRequest(t, tt.filename, "data", tt.fields))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			msg := decodeError(t, rec)
			assert.NotEmpty(t, msg)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, msg)
			}
			if tt.routed {
				assert.True(t, p.inputExisted)
				assert.NoFileExists(t, p.req.InputPath, "upload must be removed after an error")
			} else {
				assert.Empty(t, p.req.InputPath)
			}
		})
	}
}

func TestProcess_UploadTooLarge(t *testing.T) {
	p := &fakeProcessor{}
	s := newTestServer(t, p)

	rec := serve(s, uploadRequest(t, "big.wav", string(make([]byte, 2<<20)), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, p.req.InputPath)
}

// ==========================
// Auxiliary Endpoint Tests
// ==========================

func TestIndexPage(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/process")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReady(t *testing.T) {
	tests := []struct {
		name           string
		check          Check
		expectedStatus int
		expectedState  string
	}{
		{"healthy dependency", func(context.Context) error { return nil }, http.StatusOK, "ready"},
		{"failing dependency", func(context.Context) error { return errors.New("redis down") }, http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeProcessor{}, WithReadinessCheck("cache", tt.check))

			rec := serve(s, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedState, body.Status)
			assert.Contains(t, body.Checks, "cache")
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCORS(t *testing.T) {
	s := New(config.ServerConfig{CORSOrigins: []string{"http://app.example.com"}}, &fakeProcessor{}, logger.NewTestLogger(t))

	req := httptest.NewRequest(http.MethodOptions, "/process", nil)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(s, req)

	assert.Equal(t, "http://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"http://a", "*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"http://a"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"http://a"}, cfg.AllowOrigins)
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := serve(s, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}
