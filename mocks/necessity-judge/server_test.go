package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/necessity"
)

func startMock(t *testing.T, mode Mode) (*httptest.Server, *necessity.GeminiClient) {
	t.Helper()
	srv := httptest.NewServer(newServer(mode, 200*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil))).routes())
	t.Cleanup(srv.Close)
	client, err := necessity.NewGeminiClient(context.Background(), "test-key",
		necessity.WithBaseURL(srv.URL),
		necessity.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return srv, client
}

func TestMockSpeaksGeminiToTheClient(t *testing.T) {
	_, client := startMock(t, ModeVerdict)

	a, err := client.Assess(context.Background(), models.NecessityRequest{
		Diagnosis: "Viral fever",
		Medicines: []models.Medicine{{Name: "Paracetamol 650mg"}},
	})
	require.NoError(t, err)
	assert.True(t, a.IsNecessary)
	assert.InDelta(t, 0.92, a.Confidence, 1e-9)

	a, err = client.Assess(context.Background(), models.NecessityRequest{Diagnosis: "Cosmetic skin treatment"})
	require.NoError(t, err)
	assert.False(t, a.IsNecessary)
}

func TestMockFailureModes(t *testing.T) {
	srv, client := startMock(t, ModeError)

	_, err := client.Assess(context.Background(), models.NecessityRequest{Diagnosis: "Viral fever"})
	assert.Equal(t, necessity.CategoryOutage, necessity.CategoryOf(err))

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/mode/garbage", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, err = client.Assess(context.Background(), models.NecessityRequest{Diagnosis: "Viral fever"})
	assert.Equal(t, necessity.CategoryBadData, necessity.CategoryOf(err))
}

func TestMockRequiresAPIKey(t *testing.T) {
	srv, _ := startMock(t, ModeVerdict)
	resp, err := srv.Client().Post(srv.URL+"/v1beta/models/gemini-2.5-flash:generateContent", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
