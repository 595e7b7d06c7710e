package llm

import (
	"context"
	"iter"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"google.golang.org/genai"
)

// generateCall records one GenerateContent invocation
type generateCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// fakeBackend is a scriptable Backend
type fakeBackend struct {
	mu sync.Mutex

	generateFn func(ctx context.Context, model string) (*genai.GenerateContentResponse, error)
	chunks     []string
	streamErr  error

	generateCalls []generateCall
	streamHistory []*genai.Content
	streamConfig  *genai.GenerateContentConfig
	streamMessage string
}

func (f *fakeBackend) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.generateCalls = append(f.generateCalls, generateCall{model: model, contents: contents, config: config})
	f.mu.Unlock()

	if f.generateFn == nil {
		return nil, nil
	}
	return f.generateFn(ctx, model)
}

func (f *fakeBackend) StreamChat(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content, message string) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.mu.Lock()
	f.streamHistory = history
	f.streamConfig = config
	f.streamMessage = message
	f.mu.Unlock()

	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, chunk := range f.chunks {
			if !yield(textResponse(chunk), nil) {
				return
			}
		}
		if f.streamErr != nil {
			yield(nil, f.streamErr)
		}
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}
}

func newTestService(backend Backend) *GeminiService {
	config := common.NewDefaultConfig().Gemini
	config.RateLimit = "0"
	return NewGeminiService(&config, backend, arbor.NewLogger())
}
