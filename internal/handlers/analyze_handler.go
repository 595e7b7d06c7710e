package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/models"
)

// AnalysisRecorder stores completed analyses
type AnalysisRecorder interface {
	Record(ctx context.Context, prompt, fileName string, result *models.AnalysisResult) (*models.HistoryItem, error)
}

// analyzeRequest is the JSON form of an analysis request
type analyzeRequest struct {
	Prompt string               `json:"prompt"`
	File   *models.UploadedFile `json:"file,omitempty"`
}

type analyzeResponse struct {
	Result    *models.AnalysisResult `json:"result"`
	HistoryID string                 `json:"history_id,omitempty"`
}

// AnalyzeHandler handles study material analysis requests
type AnalyzeHandler struct {
	analyzer interfaces.Analyzer
	recorder AnalysisRecorder
	maxBytes int64
	logger   arbor.ILogger
}

// NewAnalyzeHandler creates an analyze handler. recorder may be nil.
func NewAnalyzeHandler(analyzer interfaces.Analyzer, recorder AnalysisRecorder, maxBytes int64, logger arbor.ILogger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer: analyzer,
		recorder: recorder,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// AnalyzeHandler handles POST /api/analyze.
// Accepts multipart/form-data (fields "prompt" and "file") or a JSON analyzeRequest.
func (h *AnalyzeHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req analyzeRequest
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, err = h.readMultipart(w, r)
	} else {
		err = DecodeJSON(w, r, h.requestLimit(), &req)
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" && req.File == nil {
		WriteError(w, http.StatusBadRequest, "A prompt or a file is required")
		return
	}
	if req.File != nil {
		if err := requestValidator.Struct(req.File); err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid file: %v", err))
			return
		}
	}

	var fileData, mimeType, fileName string
	if req.File != nil {
		fileData, mimeType, fileName = req.File.Data, req.File.MIMEType, req.File.Name
	}

	result, err := h.analyzer.Analyze(r.Context(), fileData, mimeType, req.Prompt)
	if err != nil {
		WriteServiceError(w, h.logger, err, "Failed to analyze content")
		return
	}

	response := analyzeResponse{Result: result}
	if h.recorder != nil {
		item, err := h.recorder.Record(r.Context(), req.Prompt, fileName, result)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to record analysis in history")
		} else if item != nil {
			response.HistoryID = item.ID
		}
	}

	h.logger.Info().
		Str("mime_type", mimeType).
		Int("keywords", len(result.Keywords)).
		Msg("Analysis completed")

	WriteJSON(w, http.StatusOK, response)
}

// readMultipart reads the prompt field and the optional file part. The MIME
// type is sniffed from the content rather than trusted from the client.
func (h *AnalyzeHandler) readMultipart(w http.ResponseWriter, r *http.Request) (analyzeRequest, error) {
	if limit := h.requestLimit(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return analyzeRequest{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	req := analyzeRequest{Prompt: r.FormValue("prompt")}

	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return req, nil
	}
	if err != nil {
		return analyzeRequest{}, fmt.Errorf("invalid file part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return analyzeRequest{}, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return analyzeRequest{}, fmt.Errorf("file is empty")
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		return analyzeRequest{}, fmt.Errorf("file exceeds %d bytes", h.maxBytes)
	}

	mimeType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")

	req.File = &models.UploadedFile{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: strings.TrimSpace(mimeType),
		Name:     header.Filename,
	}
	return req, nil
}

// requestLimit bounds the request body: the file limit plus room for base64
// expansion and the form envelope
func (h *AnalyzeHandler) requestLimit() int64 {
	if h.maxBytes <= 0 {
		return 0
	}
	return h.maxBytes*4/3 + 1<<20
}
