package web

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestParseID(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		wantID     int64
		wantOK     bool
		wantStatus int
	}{
		{name: "valid", value: "42", wantID: 42, wantOK: true, wantStatus: http.StatusOK},
		{name: "not a number", value: "2020-01-01T10A00", wantOK: false, wantStatus: http.StatusBadRequest},
		{name: "zero", value: "0", wantID: 0, wantOK: true, wantStatus: http.StatusOK},
		{name: "negative", value: "-3", wantID: -3, wantOK: true, wantStatus: http.StatusOK},
		{name: "empty", value: "", wantOK: false, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			req := httptest.NewRequest(http.MethodGet, "/products/x", nil)
			req.SetPathValue("id", tt.value)
			rr := httptest.NewRecorder()

			// when
			id, ok := ParseID(rr, req, discard)

			// then
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

type sample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestDecodeValid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantOK   bool
		wantBody string
	}{
		{name: "valid", body: `{"name":"a","email":"a@b.c"}`, wantOK: true},
		{name: "malformed json", body: `{"name":`, wantBody: `{"error":"Invalid request body"}`},
		{name: "rule violations", body: `{"email":"nope"}`, wantBody: `{"validation_errors":{"Name":"failed on rule: required","Email":"failed on rule: email"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			var dst sample

			// when
			ok := DecodeValid(rr, req, discard, validator.New(), &dst)

			// then
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "a", dst.Name)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestRespondJSON_NilPayload(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondJSON(rr, discard, http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Empty(t, rr.Header().Get("Content-Type"))
}

func TestRequestIDInjector(t *testing.T) {
	var seen string
	h := RequestIDInjector(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetReqID(r.Context())
	}))

	t.Run("reuses incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "abc", seen)
		assert.Equal(t, "abc", rr.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("generates one when missing", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get(middleware.RequestIDHeader))
	})
}

func TestRecoverer(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()

	// when
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "Panic recovered")
}
