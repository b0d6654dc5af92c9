package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "opdclaims/pkg/domain-errors"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeValidation, "member_id is required"), http.StatusBadRequest, "validation_error"},
		{dErrors.New(dErrors.CodeInvariantViolation, "member name cannot be empty"), http.StatusBadRequest, "invariant_violation"},
		{dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"), http.StatusUnauthorized, "unauthorized"},
		{dErrors.New(dErrors.CodeNotFound, "claim not found"), http.StatusNotFound, "not_found"},
		{dErrors.New(dErrors.CodeConflict, "member already exists"), http.StatusConflict, "conflict"},
		{dErrors.New(dErrors.CodeTimeout, "member is busy"), http.StatusGatewayTimeout, "timeout"},
		{dErrors.New(dErrors.CodeUnavailable, "claim could not be validated"), http.StatusServiceUnavailable, "service_unavailable"},
		{fmt.Errorf("finalize: %w", dErrors.New(dErrors.CodeConflict, "bill in use")), http.StatusConflict, "conflict"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decodeError(t, w)["error"])
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, dErrors.New(dErrors.CodeInternal, "insert decision: disk full"))

	body := decodeError(t, w)
	assert.Equal(t, "internal_error", body["error"])
	assert.NotContains(t, body, "error_description")
}

type sample struct {
	Name string `json:"name"`
}

func (p *sample) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	decode := func(body string) (*sample, *httptest.ResponseRecorder) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		w := httptest.NewRecorder()
		got, _ := DecodeAndPrepare[sample](w, r, logger, r.Context(), "req-1")
		return got, w
	}

	got, _ := decode(`{"name":"  Asha "}`)
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Name)

	got, w := decode("")
	assert.Nil(t, got)
	assert.Equal(t, "bad_request", decodeError(t, w)["error"])

	got, w = decode(`{"name":`)
	assert.Nil(t, got)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	got, w = decode(`{"name":" "}`)
	assert.Nil(t, got)
	assert.Equal(t, "validation_error", decodeError(t, w)["error"])
}
