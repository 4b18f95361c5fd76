// Package ai talks to an OpenAI-compatible chat completions endpoint for image analysis,
// outfit generation and shopping recommendations.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yishak-cs/wardrobe/internal/apperr"
	"github.com/yishak-cs/wardrobe/internal/logger"
	"github.com/yishak-cs/wardrobe/internal/metrics"
	"github.com/yishak-cs/wardrobe/internal/models"
)

// Config holds the chat completions endpoint configuration. Setting APIVersion switches to
// Azure OpenAI conventions: an api-key header and an api-version query parameter.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	APIVersion string
	Timeout    time.Duration
}

// Client implements the vision, outfit and shopping calls on one endpoint
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	apiVersion string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[chatCompletionResponse]
	log        *logger.Logger
}

const (
	breakerName = "ai-chat-completions"
	// breakerTripAfter consecutive upstream failures open the circuit for breakerCooldown
	breakerTripAfter = 5
	breakerCooldown  = 30 * time.Second
)

// New creates a client with its own transport
func New(cfg Config, log *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("ai: base url required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("ai: model required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      strings.TrimSpace(cfg.Model),
		apiVersion: strings.TrimSpace(cfg.APIVersion),
		timeout:    timeout,
		httpClient: &http.Client{Transport: tr},
		log:        log.With("component", "AIClient"),
	}
	c.breaker = newBreaker(c.log)
	return c, nil
}

func newBreaker(log *logger.Logger) *gobreaker.CircuitBreaker[chatCompletionResponse] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[chatCompletionResponse](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state transition", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
}

// countsAsHealthy keeps caller cancellations and request errors (4xx other than 429)
// from tripping the breaker; only upstream failures do.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, log *logger.Logger) (*Client, error) {
	c, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// HTTPError is a non-2xx answer from the endpoint
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// AnalyzeImage asks the vision model for every garment visible in image
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, contentType string) ([]models.DetectedItem, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)

	text, err := c.complete(ctx, "analyze image", []chatMessage{
		{Role: "system", Content: visionSystemPrompt},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: visionPrompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		}},
	})
	if err != nil {
		return nil, err
	}
	return ParseDetectedItems(text)
}

// GenerateOutfit asks the stylist model for an outfit built from catalogDescription
func (c *Client) GenerateOutfit(ctx context.Context, catalogDescription string, constraints models.OutfitConstraints) (models.OutfitSuggestion, error) {
	text, err := c.complete(ctx, "generate outfit", []chatMessage{
		{Role: "system", Content: stylistSystemPrompt},
		{Role: "user", Content: buildOutfitPrompt(catalogDescription, constraints)},
	})
	if err != nil {
		return models.OutfitSuggestion{}, err
	}
	return ParseOutfitSuggestion(text)
}

// RecommendShopping asks for up to limit items that would fill the gaps in analysis
func (c *Client) RecommendShopping(ctx context.Context, analysis models.WardrobeAnalysis, prefs *models.PreferenceHints, limit int) ([]models.ShoppingRecommendation, error) {
	text, err := c.complete(ctx, "recommend shopping", []chatMessage{
		{Role: "system", Content: shoppingSystemPrompt},
		{Role: "user", Content: buildShoppingPrompt(analysis, prefs, limit)},
	})
	if err != nil {
		return nil, err
	}
	recs, err := ParseShoppingRecommendations(text)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// complete sends one JSON-mode chat completion and returns the first choice's content
func (c *Client) complete(ctx context.Context, op string, messages []chatMessage) (string, error) {
	reqBody := chatCompletionRequest{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: map[string]any{"type": "json_object"},
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (chatCompletionResponse, error) {
		var out chatCompletionResponse
		err := c.doJSON(ctx, reqBody, &out)
		return out, err
	})
	if err != nil {
		outcome := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "rejected"
		}
		metrics.AIRequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
		c.log.Warn("AI request failed", "op", op, "outcome", outcome, "error", err)
		return "", apperr.External(op, err)
	}
	metrics.AIRequestDuration.WithLabelValues(op, "success").Observe(time.Since(start).Seconds())
	c.log.Debug("AI request completed", "op", op, "duration_ms", time.Since(start).Milliseconds())

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", apperr.External(op, errors.New("empty completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) endpoint() string {
	url := c.baseURL + "/chat/completions"
	if c.apiVersion != "" {
		url += "?api-version=" + c.apiVersion
	}
	return url
}

func (c *Client) doJSON(ctx context.Context, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		if c.apiVersion != "" {
			req.Header.Set("api-key", c.apiKey)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
