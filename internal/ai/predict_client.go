package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kdimtricp/hoverlabel/internal/logging"
	"github.com/kdimtricp/hoverlabel/internal/models"
)

const (
	DefaultPredictURL = "http://127.0.0.1:5000/predict"
	DefaultRPS        = 5
	DefaultBurst      = 2

	maxResponseBytes = 1 << 20
)

type PredictClient struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type ClientConfig struct {
	URL   string
	RPS   float64
	Burst int
}

// NewPredictClient builds a client for the local model server. Deadlines
// come from the caller's context, not from the http.Client.
func NewPredictClient(config ClientConfig) *PredictClient {
	if config.URL == "" {
		config.URL = DefaultPredictURL
	}
	if config.RPS <= 0 {
		config.RPS = DefaultRPS
	}
	if config.Burst <= 0 {
		config.Burst = DefaultBurst
	}

	return &PredictClient{
		url:        config.URL,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(config.RPS), config.Burst),
	}
}

type predictRequest struct {
	Image string `json:"image"`
}

type predictResponse struct {
	Label      string          `json:"label"`
	Prediction string          `json:"prediction"`
	Confidence json.RawMessage `json:"confidence"`
	Error      string          `json:"error"`
}

func (c *PredictClient) Classify(ctx context.Context, payload *models.Payload) (models.RawVerdict, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.RawVerdict{}, fmt.Errorf("%w: waiting for rate limiter: %v", models.ErrTimeout, err)
	}

	jsonData, err := json.Marshal(predictRequest{Image: payload.Data})
	if err != nil {
		return models.RawVerdict{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return models.RawVerdict{}, fmt.Errorf("%w: failed to create request: %v", models.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.RawVerdict{}, fmt.Errorf("%w: %v", models.ErrTimeout, err)
		}
		return models.RawVerdict{}, fmt.Errorf("%w: failed to make request: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.RawVerdict{}, fmt.Errorf("%w: %v", models.ErrTimeout, err)
		}
		return models.RawVerdict{}, fmt.Errorf("%w: failed to read response: %v", models.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RawVerdict{}, fmt.Errorf("%w: model server returned status %d: %s",
			models.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	raw, err := parsePredictResponse(body)
	if err != nil {
		return models.RawVerdict{}, err
	}

	logging.Debug("prediction received", "label", raw.Label, "confidence", raw.Confidence,
		"latency", time.Since(start))
	return raw, nil
}

func parsePredictResponse(body []byte) (models.RawVerdict, error) {
	var predResp predictResponse
	if err := json.Unmarshal(body, &predResp); err != nil {
		return models.RawVerdict{}, fmt.Errorf("%w: failed to unmarshal response: %v", models.ErrMalformedResponse, err)
	}

	if predResp.Error != "" {
		return models.RawVerdict{}, fmt.Errorf("%w: model server error: %s", models.ErrNetwork, predResp.Error)
	}

	labelText := predResp.Label
	if labelText == "" {
		labelText = predResp.Prediction
	}
	label, ok := models.ParseLabel(labelText)
	if !ok {
		return models.RawVerdict{}, fmt.Errorf("%w: unknown label %q", models.ErrMalformedResponse, labelText)
	}

	confidence, err := parseConfidence(predResp.Confidence)
	if err != nil {
		return models.RawVerdict{}, err
	}

	return models.RawVerdict{Label: label, Confidence: confidence}, nil
}

// parseConfidence accepts a JSON number or a numeric string.
func parseConfidence(raw json.RawMessage) (float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, fmt.Errorf("%w: confidence missing", models.ErrMalformedResponse)
	}

	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("%w: confidence %s is not a number", models.ErrMalformedResponse, trimmed)
		}
		value, err = strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: confidence %q is not a number", models.ErrMalformedResponse, text)
		}
	}

	if math.IsNaN(value) || value < 0 || value > 1 {
		return 0, fmt.Errorf("%w: confidence %v out of range", models.ErrMalformedResponse, value)
	}
	return value, nil
}
