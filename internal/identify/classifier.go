package identify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/numisight/numisight/internal/llm"
	"github.com/numisight/numisight/internal/metrics"
)

// Classifier identifies coins in images with a vision model.
type Classifier struct {
	provider llm.Provider
	model    string
	classes  []string
	logger   *zap.Logger

	maxRetries int
	backoff    time.Duration
}

// NewClassifier creates a Classifier. An empty class list lets the model
// name the coin freely.
func NewClassifier(provider llm.Provider, model string, classes []string, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		provider:   provider,
		model:      model,
		classes:    classes,
		logger:     logger.Named("identify"),
		maxRetries: 3,
		backoff:    2 * time.Second,
	}
}

// Classes returns the class list the model chooses from.
func (c *Classifier) Classes() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.classes...)
}

// Predict classifies the coin in data. The image must decode as JPEG, PNG
// or GIF.
func (c *Classifier) Predict(ctx context.Context, data []byte) (Prediction, error) {
	if c == nil || c.provider == nil {
		return Prediction{}, ErrUnavailable
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Prediction{}, ErrInvalidImage
	}

	start := time.Now()
	resp, err := c.completeWithRetry(ctx, llm.CompletionRequest{
		Model:       c.model,
		Messages:    buildMessages(c.classes, llm.Image{MIMEType: "image/" + format, Data: data}),
		MaxTokens:   256,
		Temperature: 0.0,
		JSONMode:    true,
	})
	if err != nil {
		metrics.ClassifierDuration.WithLabelValues(c.provider.Name(), metrics.StatusError).Observe(time.Since(start).Seconds())
		return Prediction{}, fmt.Errorf("vision model: %w", err)
	}
	metrics.ClassifierDuration.WithLabelValues(c.provider.Name(), metrics.StatusOK).Observe(time.Since(start).Seconds())

	// Ollama omits usage on some models.
	if resp.OutputTokens == 0 {
		resp.OutputTokens = llm.EstimateTokens(resp.Content)
	}
	c.logger.Debug("classified image",
		zap.String("format", format),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens),
		zap.Float64("cost_usd", llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens)),
	)

	pred, err := parsePrediction(resp.Content)
	if err != nil {
		return Prediction{}, err
	}
	return c.snap(pred)
}

// snap maps the returned class onto the known class list.
func (c *Classifier) snap(p Prediction) (Prediction, error) {
	if len(c.classes) == 0 {
		return p, nil
	}
	for _, class := range c.classes {
		if strings.EqualFold(strings.TrimSpace(p.PredictedClass), class) {
			p.PredictedClass = class
			return p, nil
		}
	}
	return Prediction{}, fmt.Errorf("model returned unknown class %q", p.PredictedClass)
}

// completeWithRetry calls the provider with exponential backoff on rate
// limit and overload errors.
func (c *Classifier) completeWithRetry(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		resp, err := c.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}

		errStr := strings.ToLower(err.Error())
		retryable := strings.Contains(errStr, "rate_limit") || strings.Contains(errStr, "429") ||
			strings.Contains(errStr, "too many requests") || strings.Contains(errStr, "overloaded")
		if !retryable {
			return nil, err
		}
		if attempt == c.maxRetries {
			return nil, fmt.Errorf("rate limited after %d retries: %w", c.maxRetries, err)
		}

		c.logger.Warn("vision model rate limited, retrying", zap.Int("attempt", attempt+1), zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// parsePrediction decodes the model's JSON answer. The probability may be
// a number or a numeric string; it is clamped to [0,1] and rounded to four
// decimals.
func parsePrediction(raw string) (Prediction, error) {
	raw = strings.TrimSpace(raw)

	// Strip markdown code fences if present.
	if strings.HasPrefix(raw, "```") {
		lines := strings.Split(raw, "\n")
		if len(lines) >= 2 {
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			raw = strings.Join(lines[1:end], "\n")
		}
	}

	var out struct {
		PredictedClass string          `json:"predicted_class"`
		Probability    json.RawMessage `json:"probability"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Prediction{}, fmt.Errorf("parsing model response: %w", err)
	}
	if strings.TrimSpace(out.PredictedClass) == "" {
		return Prediction{}, fmt.Errorf("model response has no predicted_class")
	}

	prob, err := parseProbability(out.Probability)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{PredictedClass: strings.TrimSpace(out.PredictedClass), Probability: prob}, nil
}

func parseProbability(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("model response has no probability")
	}
	text := string(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	p, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(p) {
		return 0, fmt.Errorf("invalid probability %s", raw)
	}
	if strings.HasSuffix(strings.TrimSpace(s), "%") || (p > 1 && p <= 100) {
		p /= 100
	}
	p = math.Max(0, math.Min(1, p))
	return math.Round(p*10000) / 10000, nil
}
