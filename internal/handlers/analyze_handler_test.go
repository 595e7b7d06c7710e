package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/services/llm"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func TestAnalyzeHandler_JSON(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	recorder := &fakeRecorder{}
	handler := NewAnalyzeHandler(analyzer, recorder, 1<<20, arbor.NewLogger())

	body := `{"prompt":"  Giải thích định lý Pytago  ","file":{"data":"aGVsbG8=","mime_type":"text/plain","name":"ghi-chu.txt"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.AnalyzeHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, analyzer.calls, 1)
	assert.Equal(t, analyzeCall{"aGVsbG8=", "text/plain", "Giải thích định lý Pytago"}, analyzer.calls[0])

	var resp struct {
		Result    json.RawMessage `json:"result"`
		HistoryID string          `json:"history_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hist_1", resp.HistoryID)
	assert.Contains(t, string(resp.Result), `"summary":"Định lý Pytago"`)
	require.Len(t, recorder.items, 1)
	assert.Equal(t, "ghi-chu.txt", recorder.items[0].FileName)
}

func TestAnalyzeHandler_MultipartSniffsMIME(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	handler := NewAnalyzeHandler(analyzer, nil, 1<<20, arbor.NewLogger())

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("prompt", "Đây là hình gì?"))
	part, err := writer.CreateFormFile("file", "bai-tap.bin")
	require.NoError(t, err)
	_, err = part.Write(pngBytes)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.AnalyzeHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, analyzer.calls, 1)
	assert.Equal(t, "image/png", analyzer.calls[0].mimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), analyzer.calls[0].fileData)
	assert.NotContains(t, rec.Body.String(), "history_id")
}

func TestAnalyzeHandler_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"no prompt or file", http.MethodPost, `{"prompt":"   "}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, `{"question":"x"}`, http.StatusBadRequest},
		{"file without mime", http.MethodPost, `{"file":{"data":"aGVsbG8="}}`, http.StatusBadRequest},
		{"file not base64", http.MethodPost, `{"file":{"data":"%%%","mime_type":"image/png"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{result: sampleResult()}
			handler := NewAnalyzeHandler(analyzer, nil, 1<<20, arbor.NewLogger())

			req := httptest.NewRequest(tt.method, "/api/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.AnalyzeHandler(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, analyzer.calls)
			assert.Contains(t, rec.Body.String(), `"status":"error"`)
		})
	}
}

func TestAnalyzeHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{llm.ErrMalformedResponse, http.StatusBadGateway},
		{llm.ErrEmptyResponse, http.StatusBadGateway},
		{fmt.Errorf("failed to create Gemini client: %w", llm.ErrAPIKeyNotFound), http.StatusServiceUnavailable},
		{llm.ErrInvalidFileData, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			handler := NewAnalyzeHandler(&fakeAnalyzer{err: tt.err}, &fakeRecorder{}, 0, arbor.NewLogger())
			req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"prompt":"Giải thích"}`))
			rec := httptest.NewRecorder()

			handler.AnalyzeHandler(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.err.Error())
		})
	}
}
