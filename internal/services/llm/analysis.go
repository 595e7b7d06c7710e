package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/vipaii/internal/models"
	"google.golang.org/genai"
)

// analysisReply is the wire shape of a schema-constrained analysis reply
type analysisReply struct {
	Summary     string              `json:"summary" validate:"required"`
	Keywords    []string            `json:"keywords" validate:"required"`
	Explanation []analysisReplyPart `json:"explanation" validate:"required,dive"`
	Examples    []string            `json:"examples" validate:"required"`
}

type analysisReplyPart struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

var replyValidator = validator.New()

// Analyze produces a structured explanation of the prompt and optional file.
//
// The request carries the fixed Vipaii task instruction with textPrompt
// interpolated and, when both fileData and mimeType are non-empty, the file
// as an inline part. The provider is constrained to the analysis JSON schema.
//
// Parameters:
//   - ctx: Context for cancellation; the configured timeout applies on top
//   - fileData: Base64 file payload, empty for a text-only request
//   - mimeType: MIME type of fileData (image, document or audio)
//   - textPrompt: The user's question or instructions
//
// Returns:
//   - *models.AnalysisResult: Fully populated result
//   - error: ErrInvalidFileData, ErrEmptyResponse, ErrMalformedResponse, or the provider error unmodified
func (s *GeminiService) Analyze(ctx context.Context, fileData, mimeType, textPrompt string) (*models.AnalysisResult, error) {
	parts := []*genai.Part{genai.NewPartFromText(buildAnalysisPrompt(textPrompt))}

	if fileData != "" && mimeType != "" {
		data, err := base64.StdEncoding.DecodeString(fileData)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFileData, err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}})
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.wait(timeoutCtx); err != nil {
		return nil, err
	}

	config := s.baseConfig()
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = analysisSchema()

	startTime := time.Now()
	s.logger.Debug().
		Str("model", s.config.AnalysisModel).
		Int("prompt_length", len(textPrompt)).
		Bool("has_file", len(parts) > 1).
		Str("mime_type", mimeType).
		Msg("Starting content analysis")

	resp, err := s.backend.GenerateContent(timeoutCtx, s.config.AnalysisModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("model", s.config.AnalysisModel).
			Dur("duration", time.Since(startTime)).
			Msg("Content analysis failed")
		return nil, err
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		s.logger.Warn().Str("model", s.config.AnalysisModel).Msg("Content analysis returned no text")
		return nil, ErrEmptyResponse
	}

	result, err := parseAnalysisResult(text)
	if err != nil {
		s.logger.Warn().Err(err).Int("response_length", len(text)).Msg("Content analysis returned malformed JSON")
		return nil, err
	}

	s.logger.Info().
		Str("model", s.config.AnalysisModel).
		Int("keywords", len(result.Keywords)).
		Int("sections", len(result.Explanation.Parts)).
		Int("examples", len(result.Examples)).
		Dur("duration", time.Since(startTime)).
		Msg("Content analysis completed")

	return result, nil
}

// parseAnalysisResult decodes reply text into a complete AnalysisResult
func parseAnalysisResult(text string) (*models.AnalysisResult, error) {
	var reply analysisReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := replyValidator.Struct(reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	parts := make([]models.ExplanationPart, 0, len(reply.Explanation))
	for _, p := range reply.Explanation {
		parts = append(parts, models.ExplanationPart{Title: p.Title, Content: p.Content})
	}

	return &models.AnalysisResult{
		Summary:     reply.Summary,
		Keywords:    reply.Keywords,
		Explanation: models.Explanation{Parts: parts},
		Examples:    reply.Examples,
	}, nil
}
