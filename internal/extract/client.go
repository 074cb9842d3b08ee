package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"vninvoice/internal/logger"
	"vninvoice/internal/pdf"
)

// Client implements Extractor against an OpenAI-compatible chat completion API.
type Client struct {
	api    *openai.Client
	config ClientConfig
	log    zerolog.Logger
}

// NewClientWithConfig creates a client with explicit configuration.
func NewClientWithConfig(config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.Model == "" {
		config.Model = DefaultClientConfig().Model
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultClientConfig().MaxTokens
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		apiConfig.BaseURL = config.BaseURL
	}

	return &Client{
		api:    openai.NewClientWithConfig(apiConfig),
		config: config,
		log:    logger.WithComponent("extract-client"),
	}, nil
}

// ExtractInvoice sends the fixed instruction plus one image part per page and
// parses the response. Exactly one request is issued; a failed call surfaces
// to the caller and is never silently repeated.
func (c *Client) ExtractInvoice(ctx context.Context, pages []pdf.PageImage) (*RawInvoice, error) {
	const op = "ExtractInvoice"

	if len(pages) == 0 {
		return nil, &ServiceError{Op: op, Err: errors.New("no page images to extract from")}
	}

	requestID := uuid.New().String()
	log := c.log.With().Str("request_id", requestID).Logger()

	parts := make([]openai.ChatMessagePart, 0, len(pages)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: extractionPrompt,
	})
	for _, page := range pages {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(page.PNG),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	log.Info().
		Int("pages", len(pages)).
		Str("model", c.config.Model).
		Msg("Sending extraction request")

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
	})
	if err != nil {
		log.Error().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Extraction request failed")
		return nil, c.classifyServiceError(op, err)
	}

	if len(resp.Choices) == 0 {
		return nil, &ServiceError{Op: op, Err: ErrEmptyResponse}
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, &ServiceError{Op: op, Err: ErrEmptyResponse}
	}

	log.Info().
		Int("response_chars", len(content)).
		Dur("elapsed", time.Since(start)).
		Msg("Received extraction response")

	raw, err := ParseResponse(content)
	if err != nil {
		log.Error().
			Err(err).
			Str("response_head", head(content, 500)).
			Msg("Failed to parse extraction response")
		return nil, err
	}

	return raw, nil
}

// classifyServiceError maps transport failures onto the package sentinels so
// callers can switch on the cause without knowing the API client internals.
func (c *Client) classifyServiceError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &ServiceError{Op: op, Err: ErrContextCanceled, Details: err.Error()}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return &ServiceError{Op: op, Err: ErrAuthFailed, StatusCode: apiErr.HTTPStatusCode, Details: apiErr.Message}
		case apiErr.HTTPStatusCode == 429:
			return &ServiceError{Op: op, Err: ErrRateLimited, StatusCode: apiErr.HTTPStatusCode, Details: apiErr.Message}
		default:
			return &ServiceError{Op: op, Err: ErrServiceUnavailable, StatusCode: apiErr.HTTPStatusCode, Details: apiErr.Message}
		}
	}

	return &ServiceError{Op: op, Err: ErrServiceUnavailable, Details: err.Error()}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
