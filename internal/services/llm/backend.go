package llm

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"sync"

	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"google.golang.org/genai"
)

// Backend is the transport the Gemini service issues requests through
type Backend interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	StreamChat(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content, message string) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GenAIBackend talks to the Gemini API through the genai SDK.
// The API key is resolved on every call so a key selected at runtime takes
// effect without a restart; the client is rebuilt only when the key changes.
type GenAIBackend struct {
	config     *common.GeminiConfig
	kvStorage  interfaces.KeyValueStorage
	httpClient *http.Client

	mu     sync.Mutex
	client *genai.Client
	apiKey string
}

// NewGenAIBackend creates a backend resolving its key from kvStorage, the environment, then config.
// httpClient may be nil to use the SDK default.
func NewGenAIBackend(config *common.GeminiConfig, kvStorage interfaces.KeyValueStorage, httpClient *http.Client) *GenAIBackend {
	return &GenAIBackend{
		config:     config,
		kvStorage:  kvStorage,
		httpClient: httpClient,
	}
}

// getClient returns a Gemini client for the currently resolved API key
func (b *GenAIBackend) getClient(ctx context.Context) (*genai.Client, error) {
	apiKey, err := common.ResolveAPIKey(ctx, b.kvStorage, common.GeminiAPIKeyName, b.config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIKeyNotFound, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil && b.apiKey == apiKey {
		return b.client, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: b.httpClient,
	}
	if b.config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: b.config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	b.client = client
	b.apiKey = apiKey
	return client, nil
}

// GenerateContent issues a single generateContent call
func (b *GenAIBackend) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Models.GenerateContent(ctx, model, contents, config)
}

// StreamChat opens a chat seeded with history and streams the reply to message
func (b *GenAIBackend) StreamChat(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content, message string) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		client, err := b.getClient(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		chat, err := client.Chats.Create(ctx, model, config, history)
		if err != nil {
			yield(nil, fmt.Errorf("failed to create chat session: %w", err))
			return
		}

		for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: message}) {
			if !yield(resp, err) || err != nil {
				return
			}
		}
	}
}
