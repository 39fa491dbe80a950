package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/mindloom/mindloom/server/internal/model"
)

// GeminiConfig carries the knobs for the hosted Gemini backend.
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	Temperature float32
	MaxRetries  int
	RetryDelay  time.Duration
}

type geminiClient struct {
	genaiClient *genai.Client
	log         zerolog.Logger
	modelName   string
	temperature float32
	maxRetries  int
	retryDelay  time.Duration
}

// NewGeminiClient connects to the Gemini API. The API key is mandatory;
// everything else has serviceable defaults.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log zerolog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &geminiClient{
		genaiClient: gi,
		log:         log.With().Str("component", "gemini").Logger(),
		modelName:   cfg.ModelName,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
	}, nil
}

func (c *geminiClient) KeyInsights(ctx context.Context, req Request) ([]model.KeyInsight, error) {
	cfg := c.baseConfig(keyInsightSystemInstruction)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = keyInsightListSchema

	contents := []*genai.Content{genai.NewContentFromText(renderRequest(req), genai.RoleUser)}
	resp, err := c.generateWithRetries(ctx, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate key insights: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return nil, fmt.Errorf("extract key insights response: %w", err)
	}

	var raw []model.KeyInsight
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("invalid key insights JSON: %w", err)
	}
	out := make([]model.KeyInsight, 0, len(raw))
	for _, in := range raw {
		if norm, ok := normalizeInsight(in); ok {
			out = append(out, norm)
		}
	}
	c.log.Debug().Int("received", len(raw)).Int("kept", len(out)).Msg("key insights generated")
	return out, nil
}

func (c *geminiClient) Narrative(ctx context.Context, req Request) (string, error) {
	cfg := c.baseConfig(narrativeSystemInstruction)
	contents := []*genai.Content{genai.NewContentFromText(renderRequest(req), genai.RoleUser)}

	resp, err := c.generateWithRetries(ctx, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate narrative: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return "", fmt.Errorf("extract narrative response: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (c *geminiClient) baseConfig(systemInstruction string) *genai.GenerateContentConfig {
	temp := c.temperature
	return &genai.GenerateContentConfig{
		Temperature:       &temp,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
}

// generateWithRetries retries transient API failures (HTTP 500/503) with a
// fixed delay; any other error is returned immediately.
func (c *geminiClient) generateWithRetries(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		resp, err = c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
		if err == nil {
			return resp, nil
		}

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) && i < c.maxRetries {
			c.log.Warn().Err(err).Int("attempt", i+1).Int("code", apiErr.Code).Msg("retrying gemini call")
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		return nil, err
	}
	return nil, err
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		msg := resp.PromptFeedback.BlockReasonMessage
		if msg == "" {
			msg = fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("request blocked by safety filter: %s", msg)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response contained no content")
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("response text was empty")
	}
	return text, nil
}
