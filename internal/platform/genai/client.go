package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	meterName = "github.com/jooyeonthemaster/book/internal/platform/genai"

	defaultTimeout         = 30 * time.Second
	defaultRequestsPerMin  = 30
	defaultBurst           = 5
	defaultBreakerFailures = 5
	defaultBreakerCooldown = time.Minute
	maxErrorBodyBytes      = 4 << 10
	maxResponseBytes       = 1 << 20
)

var (
	// ErrEmptyResponse indicates the model replied without any candidate text.
	ErrEmptyResponse = errors.New("genai: response contained no candidates")
	// ErrUnavailable indicates the circuit breaker is rejecting calls.
	ErrUnavailable = errors.New("genai: upstream temporarily unavailable")
)

// StatusError reports a non-200 reply from the generative API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("genai: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("genai: unexpected status %d: %s", e.StatusCode, e.Body)
}

// GenerationConfig mirrors the sampling parameters accepted by generateContent.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// DefaultGenerationConfig is used when ClientConfig.Generation is zero.
var DefaultGenerationConfig = GenerationConfig{
	Temperature:     0.7,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 2048,
}

// ClientConfig configures the generateContent client.
type ClientConfig struct {
	Endpoint        string
	Model           string
	APIKey          string
	Timeout         time.Duration
	RequestsPerMin  int
	Burst           int
	BreakerFailures int
	BreakerCooldown time.Duration
	Generation      GenerationConfig
	HTTPClient      *http.Client
	Meter           metric.Meter
}

// Client calls the generateContent endpoint behind a rate limiter and a circuit breaker.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	generation GenerationConfig
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[string]
	latency    metric.Float64Histogram
}

// NewClient validates cfg and constructs a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("genai: endpoint is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("genai: model is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("genai: api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = defaultRequestsPerMin
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = defaultBreakerFailures
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = defaultBreakerCooldown
	}

	generation := cfg.Generation
	if generation == (GenerationConfig{}) {
		generation = DefaultGenerationConfig
	}

	meter := cfg.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}
	latency, err := meter.Float64Histogram(
		"genai.request.latency",
		metric.WithDescription("Latency of generateContent calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("genai: create latency histogram: %w", err)
	}

	threshold := uint32(failures)
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "genai",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})

	return &Client{
		endpoint:   endpoint + "/" + url.PathEscape(model) + ":generateContent",
		apiKey:     apiKey,
		httpClient: httpClient,
		generation: generation,
		limiter:    rate.NewLimiter(rate.Limit(float64(perMin)/60.0), burst),
		breaker:    breaker,
		latency:    latency,
	}, nil
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt to the model and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("genai: rate limit wait: %w", err)
	}

	text, err := c.breaker.Execute(func() (string, error) {
		return c.call(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return text, err
}

func (c *Client) call(ctx context.Context, prompt string) (text string, err error) {
	started := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.latency.Record(ctx, time.Since(started).Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: c.generation,
	})
	if err != nil {
		return "", fmt.Errorf("genai: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+url.QueryEscape(c.apiKey), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("genai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var decoded generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("genai: decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
