package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/clipquery/clipquery/internal/config"
	"github.com/clipquery/clipquery/internal/prompts"
)

// CaptionService describes sampled video frames using a Vision Language
// Model behind an OpenAI-compatible chat completions endpoint.
type CaptionService struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewCaptionService creates a frame captioning client.
func NewCaptionService(cfg *config.Captioner) *CaptionService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(60 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &CaptionService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// GetModel returns the model name being used.
func (s *CaptionService) GetModel() string {
	return s.model
}

// Caption reads one frame image and returns its natural-language description.
func (s *CaptionService) Caption(ctx context.Context, imagePath string) (string, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read frame %s: %w", filepath.Base(imagePath), err)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType(imagePath), base64.StdEncoding.EncodeToString(imageData))

	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: prompts.CaptionSystemPrompt,
			},
			{
				Role: "user",
				Content: []interface{}{
					chatTextContent{
						Type: "text",
						Text: prompts.CaptionUserPrompt,
					},
					chatImageContent{
						Type: "image_url",
						ImageURL: chatImageURL{
							URL:    dataURL,
							Detail: "auto",
						},
					},
				},
			},
		},
		MaxTokens: 300,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call caption API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return "", fmt.Errorf("caption API error: HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("caption API error: HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from caption API (status %d)", httpResp.StatusCode())
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func mimeType(imagePath string) string {
	switch strings.ToLower(filepath.Ext(imagePath)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
