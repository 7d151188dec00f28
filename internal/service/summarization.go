package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/clipquery/clipquery/internal/config"
	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/prompts"
)

// SummarizationService compresses one scene's transcript and visual
// observations, plus the carried context, into a single sentence via an
// OpenAI-compatible chat completions endpoint.
type SummarizationService struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewSummarizationService creates a scene summarization client.
func NewSummarizationService(cfg *config.Summarizer) *SummarizationService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &SummarizationService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// GetModel returns the model name being used.
func (s *SummarizationService) GetModel() string {
	return s.model
}

// Summarize generates the one-sentence summary for a scene.
func (s *SummarizationService) Summarize(ctx context.Context, rec domain.ContextRecord) (string, error) {
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: prompts.SummarySystemPrompt,
			},
			{
				Role:    "user",
				Content: prompts.SummaryUserPrompt(rec),
			},
		},
		MaxTokens: 200,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call summarization API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return "", fmt.Errorf("summarization API error: HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("summarization API error: HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from summarization API (status %d)", httpResp.StatusCode())
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("summarization API returned empty content")
	}

	return summary, nil
}
