package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/clipquery/clipquery/internal/config"
)

// TranscriptionService converts audio sub-clips to text via an
// OpenAI-compatible speech-to-text endpoint.
type TranscriptionService struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewTranscriptionService creates a transcription client.
func NewTranscriptionService(cfg *config.Transcriber) *TranscriptionService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetTimeout(120 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &TranscriptionService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/audio/transcriptions",
	}
}

// GetModel returns the model name being used.
func (s *TranscriptionService) GetModel() string {
	return s.model
}

type transcriptionResponse struct {
	Text  string    `json:"text"`
	Error *apiError `json:"error,omitempty"`
}

// Transcribe uploads one audio file and returns its transcript. An empty
// transcript is a valid result for silent clips.
func (s *TranscriptionService) Transcribe(ctx context.Context, audioPath string) (string, error) {
	var resp transcriptionResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetFile("file", audioPath).
		SetFormData(map[string]string{
			"model":           s.model,
			"response_format": "json",
		}).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call transcription API for %s: %w", filepath.Base(audioPath), err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return "", fmt.Errorf("transcription API error: HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("transcription API error: HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
	}

	return resp.Text, nil
}
