package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/models"
)

type memoryKV struct {
	values map[string]string
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", interfaces.ErrKeyNotFound
}

func (m *memoryKV) Set(ctx context.Context, key, value, description string) error {
	m.values[key] = value
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VIPAII_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("API_KEY", "")
}

func newFakeGemini(t *testing.T, handler http.HandlerFunc) *common.GeminiConfig {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := common.NewDefaultConfig().Gemini
	config.BaseURL = server.URL
	config.RateLimit = "0"
	return &config
}

func TestGenAIBackend_AnalyzeOverHTTP(t *testing.T) {
	clearKeyEnv(t)

	var gotKey, gotPath string
	config := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, pythagorasReply)
	})

	kv := &memoryKV{values: map[string]string{common.GeminiAPIKeyName: "selected-key"}}
	service := NewGeminiService(config, NewGenAIBackend(config, kv, nil), arbor.NewLogger())

	result, err := service.Analyze(context.Background(), "", "", "Giải thích định lý Pytago")
	require.NoError(t, err)
	assert.Equal(t, "Định lý Pytago liên hệ ba cạnh của tam giác vuông.", result.Summary)
	assert.Equal(t, "selected-key", gotKey)
	assert.True(t, strings.HasSuffix(gotPath, "gemini-3-flash-preview:generateContent"), gotPath)
}

func TestGenAIBackend_BillingEntityError(t *testing.T) {
	clearKeyEnv(t)

	config := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`)
	})
	config.APIKey = "config-key"

	service := NewGeminiService(config, NewGenAIBackend(config, nil, nil), arbor.NewLogger())

	_, err := service.GenerateImage(context.Background(), "hoa mai", models.ImageResolution1K)
	require.Error(t, err)
	assert.True(t, IsBillingEntityError(err))
	assert.Equal(t, "Requested entity was not found.", ProviderMessage(err))
	assert.Equal(t, http.StatusNotFound, ProviderStatus(err))
}

func TestGenAIBackend_StreamOverHTTP(t *testing.T) {
	clearKeyEnv(t)

	config := newFakeGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"Xin ", "chào"} {
			fmt.Fprintf(w, "data: {\"candidates\":[{\"content\":{\"role\":\"model\",\"parts\":[{\"text\":%q}]}}]}\n\n", chunk)
		}
	})
	config.APIKey = "config-key"

	service := NewGeminiService(config, NewGenAIBackend(config, nil, nil), arbor.NewLogger())

	fragments, err := collect(service.StreamChat(context.Background(), nil, "chào"))
	require.NoError(t, err)
	assert.Equal(t, "Xin chào", strings.Join(fragments, ""))
}

func TestGenAIBackend_MissingKey(t *testing.T) {
	clearKeyEnv(t)

	config := common.NewDefaultConfig().Gemini
	backend := NewGenAIBackend(&config, nil, nil)

	_, err := backend.GenerateContent(context.Background(), config.AnalysisModel, nil, nil)
	assert.ErrorIs(t, err, ErrAPIKeyNotFound)
}

func TestGenAIBackend_ReusesClientUntilKeyChanges(t *testing.T) {
	clearKeyEnv(t)

	config := common.NewDefaultConfig().Gemini
	config.BaseURL = "http://127.0.0.1:1"
	kv := &memoryKV{values: map[string]string{common.GeminiAPIKeyName: "first"}}
	backend := NewGenAIBackend(&config, kv, nil)

	first, err := backend.getClient(context.Background())
	require.NoError(t, err)
	again, err := backend.getClient(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, again)

	kv.values[common.GeminiAPIKeyName] = "second"
	changed, err := backend.getClient(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, changed)
}
