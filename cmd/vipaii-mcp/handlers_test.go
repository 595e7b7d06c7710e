package main

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vipaii/internal/models"
)

type fakeAssistant struct {
	mimeType string
	prompt   string
	reply    []string
	err      error
}

func (f *fakeAssistant) Analyze(ctx context.Context, fileData, mimeType, textPrompt string) (*models.AnalysisResult, error) {
	f.mimeType = mimeType
	f.prompt = textPrompt
	if f.err != nil {
		return nil, f.err
	}
	return &models.AnalysisResult{
		Summary:     "Định lý Pytago",
		Keywords:    []string{"tam giác vuông"},
		Explanation: models.Explanation{Text: "$a^2 + b^2 = c^2$"},
	}, nil
}

func (f *fakeAssistant) StreamChat(ctx context.Context, history []models.ChatMessage, newMessage string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, fragment := range f.reply {
			if !yield(fragment, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func (f *fakeAssistant) GenerateImage(ctx context.Context, prompt string, resolution models.ImageResolution) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "data:image/png;base64,iVBORw0KGgo=", nil
}

type fakeHistory struct {
	items []*models.HistoryItem
}

func (f *fakeHistory) Record(ctx context.Context, prompt, fileName string, result *models.AnalysisResult) (*models.HistoryItem, error) {
	item := &models.HistoryItem{ID: "hist_1", Timestamp: time.Now(), Prompt: prompt, FileName: fileName, Result: *result}
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeHistory) List(ctx context.Context, limit int) ([]*models.HistoryItem, error) {
	return f.items, nil
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var request mcp.CallToolRequest
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleAnalyzeContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bai-tap.txt")
	require.NoError(t, os.WriteFile(path, []byte("Tính cạnh huyền của tam giác vuông 3, 4"), 0644))

	assistant := &fakeAssistant{}
	historyLog := &fakeHistory{}
	handler := handleAnalyzeContent(assistant, historyLog, 1<<20, arbor.NewLogger())

	result, err := handler(context.Background(), callTool(map[string]any{
		"prompt":    "Giải giúp em",
		"file_path": path,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "**History ID:** hist_1")
	assert.Contains(t, text, "## Tóm tắt\n\nĐịnh lý Pytago")
	assert.Equal(t, "text/plain", assistant.mimeType)
	assert.Equal(t, "Giải giúp em", assistant.prompt)
	require.Len(t, historyLog.items, 1)
	assert.Equal(t, "bai-tap.txt", historyLog.items[0].FileName)
}

func TestHandleAnalyzeContent_Rejections(t *testing.T) {
	handler := handleAnalyzeContent(&fakeAssistant{}, &fakeHistory{}, 4, arbor.NewLogger())

	result, err := handler(context.Background(), callTool(map[string]any{"prompt": "  "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, []byte("too large"), 0644))
	result, err = handler(context.Background(), callTool(map[string]any{"file_path": path}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "exceeds 4 bytes")
}

func TestHandleAsk(t *testing.T) {
	handler := handleAsk(&fakeAssistant{reply: []string{"Xin ", "chào"}}, arbor.NewLogger())

	result, err := handler(context.Background(), callTool(map[string]any{"question": "Chào bạn"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "Xin chào", resultText(t, result))

	failing := handleAsk(&fakeAssistant{reply: []string{"Xin "}, err: errors.New("stream broke")}, arbor.NewLogger())
	result, err = failing(context.Background(), callTool(map[string]any{"question": "Chào bạn"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "stream broke")
}

func TestHandleGenerateImage(t *testing.T) {
	handler := handleGenerateImage(&fakeAssistant{}, arbor.NewLogger())

	result, err := handler(context.Background(), callTool(map[string]any{"prompt": "tam giác vuông", "resolution": "2k"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 2)
	assert.Contains(t, resultText(t, result), "2K")

	image, ok := result.Content[1].(mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", image.MIMEType)
	assert.Equal(t, "iVBORw0KGgo=", image.Data)

	result, err = handler(context.Background(), callTool(map[string]any{"prompt": "x", "resolution": "8K"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestFormatHistory(t *testing.T) {
	assert.Contains(t, formatHistory(nil), "No analyses recorded.")

	items := []*models.HistoryItem{{ID: "hist_1", Prompt: "Định lý Pytago", Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}}
	text := formatHistory(items)
	assert.Contains(t, text, "1. **Định lý Pytago** (hist_1)")
	assert.Contains(t, text, "Recorded: 2026-01-02T03:04:05Z")
}
