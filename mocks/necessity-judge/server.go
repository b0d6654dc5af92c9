package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Mode selects how the mock answers.
type Mode string

const (
	ModeVerdict Mode = "verdict"
	ModeError   Mode = "error"
	ModeSlow    Mode = "slow"
	ModeGarbage Mode = "garbage"
)

var diagnosisLine = regexp.MustCompile(`(?m)^\*\*Diagnosis\*\*:[ \t]*(.*)$`)

// unnecessary diagnoses get a negative verdict.
var unnecessary = []string{"cosmetic", "weight loss", "hair", "vitamin deficiency"}

type server struct {
	mode   atomic.Value
	delay  time.Duration
	logger *slog.Logger
}

func newServer(mode Mode, delay time.Duration, logger *slog.Logger) *server {
	s := &server{delay: delay, logger: logger}
	s.mode.Store(mode)
	return s
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/v1beta/models/{model}:generateContent", s.handleGenerate)
	r.Put("/mode/{mode}", s.handleSetMode)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

type verdict struct {
	IsNecessary bool     `json:"is_necessary"`
	Confidence  float64  `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Flags       []string `json:"flags"`
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-goog-api-key") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]any{"code": 401, "message": "API key not valid", "status": "UNAUTHENTICATED"}})
		return
	}

	mode := s.mode.Load().(Mode)
	switch mode {
	case ModeError:
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"code": 503, "message": "model overloaded", "status": "UNAVAILABLE"}})
		return
	case ModeSlow:
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": "invalid JSON payload", "status": "INVALID_ARGUMENT"}})
		return
	}
	var prompt strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			prompt.WriteString(p.Text)
		}
	}

	text := "I am unable to evaluate this claim."
	if mode != ModeGarbage {
		v := judge(prompt.String())
		raw, _ := json.Marshal(v)
		text = "```json\n" + string(raw) + "\n```"
	}

	s.logger.Info("generateContent",
		"model", chi.URLParam(r, "model"),
		"mode", mode,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": text}},
			},
			"finishReason": "STOP",
		}},
	})
}

func (s *server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	mode := Mode(chi.URLParam(r, "mode"))
	switch mode {
	case ModeVerdict, ModeError, ModeSlow, ModeGarbage:
		s.mode.Store(mode)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unknown mode", http.StatusBadRequest)
	}
}

// judge answers from the diagnosis in the prompt.
func judge(prompt string) verdict {
	diagnosis := ""
	if m := diagnosisLine.FindStringSubmatch(prompt); m != nil {
		diagnosis = strings.ToLower(strings.TrimSpace(m[1]))
	}
	for _, term := range unnecessary {
		if strings.Contains(diagnosis, term) {
			return verdict{
				IsNecessary: false,
				Confidence:  0.85,
				Reasoning:   "Treatment for " + term + " is not medically necessary.",
				Flags:       []string{"not_medically_necessary"},
			}
		}
	}
	if diagnosis == "" {
		return verdict{IsNecessary: true, Confidence: 0.6, Reasoning: "No diagnosis given.", Flags: []string{"missing_diagnosis"}}
	}
	return verdict{
		IsNecessary: true,
		Confidence:  0.92,
		Reasoning:   "Prescribed treatment is consistent with " + diagnosis + ".",
		Flags:       []string{},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
