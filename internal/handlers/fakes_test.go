package handlers

import (
	"context"
	"iter"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/chatbox"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
	"github.com/ternarybob/vipaii/internal/services/sessions"
)

type analyzeCall struct {
	fileData, mimeType, prompt string
}

type fakeAnalyzer struct {
	result *models.AnalysisResult
	err    error
	calls  []analyzeCall
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, fileData, mimeType, textPrompt string) (*models.AnalysisResult, error) {
	f.calls = append(f.calls, analyzeCall{fileData, mimeType, textPrompt})
	return f.result, f.err
}

type fakeRecorder struct {
	items []*models.HistoryItem
}

func (f *fakeRecorder) Record(ctx context.Context, prompt, fileName string, result *models.AnalysisResult) (*models.HistoryItem, error) {
	item := &models.HistoryItem{ID: "hist_1", Prompt: prompt, FileName: fileName, Result: *result}
	f.items = append(f.items, item)
	return item, nil
}

// scriptedStreamer yields chunks then err, if any
type scriptedStreamer struct {
	chunks []string
	err    error
}

func (s *scriptedStreamer) StreamChat(ctx context.Context, history []models.ChatMessage, newMessage string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, chunk := range s.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

// heldStreamer yields chunks once release is closed, or fails when ctx ends
type heldStreamer struct {
	chunks  []string
	release chan struct{}
}

func (s *heldStreamer) StreamChat(ctx context.Context, history []models.ChatMessage, newMessage string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		select {
		case <-s.release:
		case <-ctx.Done():
			yield("", ctx.Err())
			return
		}
		for _, chunk := range s.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

type fakeGenerator struct {
	payload string
	err     error
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string, resolution models.ImageResolution) (string, error) {
	return f.payload, f.err
}

type openGate struct{}

func (openGate) Check(ctx context.Context) bool  { return true }
func (openGate) Prompt(ctx context.Context) error { return nil }

const tinyPNG = "data:image/png;base64,iVBORw0KGgo="

func newTestStore(streamer interfaces.ChatStreamer, generator interfaces.ImageGenerator) *sessions.Registry {
	logger := arbor.NewLogger()
	return sessions.NewRegistry(sessions.Factory{
		NewChat: func() *chatbox.Session {
			return chatbox.NewSession(streamer, chatbox.Config{Greeting: "Chào bạn!", Apology: "Xin lỗi"}, logger)
		},
		NewPanel: func() *illustrator.Panel {
			return illustrator.NewPanel(generator, openGate{}, illustrator.Config{}, logger)
		},
	}, logger)
}

// memoryKV is an in-memory KeyValueStorage
type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", interfaces.ErrKeyNotFound
}

func (m *memoryKV) Set(ctx context.Context, key, value, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return interfaces.ErrKeyNotFound
	}
	delete(m.values, key)
	return nil
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Summary:     "Định lý Pytago",
		Keywords:    []string{"Pytago"},
		Explanation: models.Explanation{Parts: []models.ExplanationPart{{Title: "Khái niệm", Content: "$a^2+b^2=c^2$"}}},
		Examples:    []string{"Thang dựa tường"},
	}
}
