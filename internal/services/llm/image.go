package llm

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/ternarybob/vipaii/internal/models"
	"google.golang.org/genai"
)

// defaultImageMIMEType is assumed when the provider omits the blob MIME type
const defaultImageMIMEType = "image/png"

// GenerateImage generates a square image for prompt at the given resolution.
//
// Returns:
//   - string: data URI of the form data:<mime>;base64,<data>
//   - error: ErrNoImageProduced when no candidate carries image data, or the provider error unmodified
func (s *GeminiService) GenerateImage(ctx context.Context, prompt string, resolution models.ImageResolution) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.wait(timeoutCtx); err != nil {
		return "", err
	}

	config := s.baseConfig()
	config.ImageConfig = &genai.ImageConfig{
		AspectRatio: "1:1",
		ImageSize:   resolution.ProviderSize(),
	}

	startTime := time.Now()
	s.logger.Debug().
		Str("model", s.config.ImageModel).
		Str("resolution", string(resolution)).
		Int("prompt_length", len(prompt)).
		Msg("Starting image generation")

	resp, err := s.backend.GenerateContent(timeoutCtx, s.config.ImageModel, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", s.config.ImageModel).
			Dur("duration", time.Since(startTime)).
			Msg("Image generation failed")
		return "", err
	}

	payload, err := extractImage(resp)
	if err != nil {
		s.logger.Warn().Str("model", s.config.ImageModel).Msg("Image generation returned no image")
		return "", err
	}

	s.logger.Info().
		Str("model", s.config.ImageModel).
		Str("resolution", string(resolution)).
		Int("payload_length", len(payload)).
		Dur("duration", time.Since(startTime)).
		Msg("Image generation completed")

	return payload, nil
}

// extractImage returns the first inline image of any candidate as a data URI
func extractImage(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrNoImageProduced
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}

			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = defaultImageMIMEType
			}
			if !strings.HasPrefix(mimeType, "image/") {
				continue
			}

			return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}

	return "", ErrNoImageProduced
}
