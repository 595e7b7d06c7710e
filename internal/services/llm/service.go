package llm

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService implements interfaces.StudyAssistant on top of a Backend.
// It shapes analysis, chat and image requests and parses the replies; it never
// retries. Every call runs under a timeout and is paced by a shared limiter.
type GeminiService struct {
	config        *common.GeminiConfig
	backend       Backend
	logger        arbor.ILogger
	limiter       *rate.Limiter
	timeout       time.Duration
	streamTimeout time.Duration
}

var _ interfaces.StudyAssistant = (*GeminiService)(nil)

// NewGeminiService creates a new Gemini service instance.
//
// Parameters:
//   - config: Gemini section of the application configuration (models, timeouts, pacing)
//   - backend: Transport for provider calls, normally a *GenAIBackend
//   - logger: Structured logger for service operations
//
// Returns:
//   - *GeminiService: Initialized service ready for use
func NewGeminiService(config *common.GeminiConfig, backend Backend, logger arbor.ILogger) *GeminiService {
	service := &GeminiService{
		config:        config,
		backend:       backend,
		logger:        logger,
		timeout:       common.Duration(config.Timeout, 2*time.Minute),
		streamTimeout: common.Duration(config.StreamTimeout, 5*time.Minute),
	}

	if interval := common.Duration(config.RateLimit, 0); interval > 0 {
		service.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	logger.Info().
		Str("analysis_model", config.AnalysisModel).
		Str("chat_model", config.ChatModel).
		Str("image_model", config.ImageModel).
		Dur("timeout", service.timeout).
		Dur("stream_timeout", service.streamTimeout).
		Msg("Gemini service initialized")

	return service
}

// wait blocks until the limiter admits another provider call
func (s *GeminiService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// baseConfig returns a generation config carrying the configured temperature
func (s *GeminiService) baseConfig() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if s.config.Temperature > 0 {
		config.Temperature = genai.Ptr(s.config.Temperature)
	}
	return config
}

// Close releases resources held by the service
func (s *GeminiService) Close() error {
	s.logger.Debug().Msg("Gemini service closed")
	return nil
}

// responseText returns the concatenated text of the first candidate, tolerating nil replies
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	return resp.Text()
}
