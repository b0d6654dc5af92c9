package necessity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"opdclaims/internal/claims/models"
)

const (
	DefaultModel = "gemini-2.5-flash"

	apiVersion = "v1beta"
)

var (
	openingFence = regexp.MustCompile("^```(?:json)?\\s*\\n")
	closingFence = regexp.MustCompile("\\n```\\s*$")
)

const promptTemplate = `
You are a medical claims reviewer. Evaluate if the treatment is medically necessary.

**Diagnosis**: %s
**Medicines Prescribed**: %s
**Tests Ordered**: %s

Evaluate:
1. Do the medicines align with the diagnosis?
2. Are the tests relevant to the diagnosis?
3. Is the treatment following standard medical protocols?

Return ONLY a valid JSON object with this exact structure:
{
  "is_necessary": true or false,
  "confidence": 0.0 to 1.0,
  "reasoning": "detailed explanation",
  "flags": ["list of any concerns"]
}
`

// GeminiClient asks a Gemini model for a medical necessity verdict through
// the genai SDK.
type GeminiClient struct {
	client     *genai.Client
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

type GeminiOption func(*GeminiClient)

// WithBaseURL points the client at another endpoint, such as the local mock
// judge. The v1beta API path is appended by the SDK.
func WithBaseURL(u string) GeminiOption {
	return func(c *GeminiClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/") + "/"
		}
	}
}

func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(hc *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithGeminiLogger(logger *slog.Logger) GeminiOption {
	return func(c *GeminiClient) {
		c.logger = logger
	}
}

func NewGeminiClient(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	c := &GeminiClient{
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client
	return c, nil
}

// verdict mirrors Assessment with pointers so missing fields are detected.
type verdict struct {
	IsNecessary *bool    `json:"is_necessary"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
	Flags       []string `json:"flags"`
}

// Assess implements ports.NecessityJudge. Every failure is a *JudgeError.
func (c *GeminiClient) Assess(ctx context.Context, req models.NecessityRequest) (models.Assessment, error) {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(BuildPrompt(req)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return models.Assessment{}, classify(ctx, err)
	}

	c.logger.DebugContext(ctx, "gemini responded",
		"model", c.model,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return models.Assessment{}, newJudgeError(CategoryBadData, "response has no candidates", nil)
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			text.WriteString(p.Text)
		}
	}
	return ParseVerdict(text.String())
}

// classify maps an SDK failure onto a judge failure category.
func classify(ctx context.Context, err error) *JudgeError {
	if ctx.Err() != nil {
		return newJudgeError(CategoryTimeout, "request did not complete", ctx.Err())
	}
	if code, ok := apiStatus(err); ok {
		return newJudgeError(statusCategory(code), fmt.Sprintf("unexpected status %d", code), err)
	}
	var decodeErr *json.SyntaxError
	if errors.As(err, &decodeErr) {
		return newJudgeError(CategoryBadData, "decode envelope", err)
	}
	return newJudgeError(CategoryOutage, "transport failure", err)
}

// apiStatus extracts the HTTP status of an error response. APIError is
// matched by value and by pointer.
func apiStatus(err error) (int, bool) {
	var byValue genai.APIError
	if errors.As(err, &byValue) {
		return byValue.Code, true
	}
	var byPointer *genai.APIError
	if errors.As(err, &byPointer) {
		return byPointer.Code, true
	}
	return 0, false
}

// BuildPrompt renders the reviewer prompt for req.
func BuildPrompt(req models.NecessityRequest) string {
	medicines := "None"
	if len(req.Medicines) > 0 {
		names := make([]string, 0, len(req.Medicines))
		for _, m := range req.Medicines {
			names = append(names, m.Name)
		}
		medicines = strings.Join(names, ", ")
	}
	tests := "None"
	if len(req.Tests) > 0 {
		tests = strings.Join(req.Tests, ", ")
	}
	return fmt.Sprintf(promptTemplate, req.Diagnosis, medicines, tests)
}

// ParseVerdict decodes the model's answer. A surrounding markdown code fence
// is tolerated.
func ParseVerdict(text string) (models.Assessment, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = openingFence.ReplaceAllString(cleaned, "")
		cleaned = closingFence.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)

	var v verdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return models.Assessment{}, newJudgeError(CategoryBadData, "decode verdict", err)
	}
	if v.IsNecessary == nil || v.Confidence == nil {
		return models.Assessment{}, newJudgeError(CategoryBadData, "verdict is missing is_necessary or confidence", nil)
	}

	a := models.Assessment{
		IsNecessary: *v.IsNecessary,
		Confidence:  *v.Confidence,
		Reasoning:   v.Reasoning,
		Flags:       v.Flags,
	}
	if err := a.Validate(); err != nil {
		return models.Assessment{}, newJudgeError(CategoryBadData, "invalid verdict", err)
	}
	return a, nil
}

func statusCategory(status int) Category {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryAuth
	case status == http.StatusTooManyRequests:
		return CategoryRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return CategoryTimeout
	case status >= 500:
		return CategoryOutage
	}
	return CategoryInternal
}
