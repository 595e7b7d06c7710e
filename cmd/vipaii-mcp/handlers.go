package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
)

// HistoryLog is the part of the history service the tools use
type HistoryLog interface {
	Record(ctx context.Context, prompt, fileName string, result *models.AnalysisResult) (*models.HistoryItem, error)
	List(ctx context.Context, limit int) ([]*models.HistoryItem, error)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// handleAnalyzeContent implements the analyze_content tool
func handleAnalyzeContent(analyzer interfaces.Analyzer, historyLog HistoryLog, maxBytes int64, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt := strings.TrimSpace(request.GetString("prompt", ""))
		filePath := request.GetString("file_path", "")
		if prompt == "" && filePath == "" {
			return errorResult("Error: prompt or file_path is required"), nil
		}

		var fileData, mimeType, fileName string
		if filePath != "" {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return errorResult(fmt.Sprintf("Error: cannot read file: %v", err)), nil
			}
			if maxBytes > 0 && int64(len(data)) > maxBytes {
				return errorResult(fmt.Sprintf("Error: file exceeds %d bytes", maxBytes)), nil
			}
			mimeType, _, _ = strings.Cut(mimetype.Detect(data).String(), ";")
			fileData = base64.StdEncoding.EncodeToString(data)
			fileName = filepath.Base(filePath)
		}

		result, err := analyzer.Analyze(ctx, fileData, mimeType, prompt)
		if err != nil {
			logger.Error().Err(err).Str("file_name", fileName).Msg("Analysis failed")
			return errorResult(fmt.Sprintf("Analysis error: %v", err)), nil
		}

		item, err := historyLog.Record(ctx, prompt, fileName, result)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to record analysis in history")
		}
		if item == nil {
			item = &models.HistoryItem{Timestamp: time.Now(), Prompt: prompt, FileName: fileName, Result: *result}
		}

		return textResult(formatAnalysis(item)), nil
	}
}

// handleAsk implements the ask_vipaii tool as a single-turn chat
func handleAsk(streamer interfaces.ChatStreamer, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		question = strings.TrimSpace(question)
		if err != nil || question == "" {
			return errorResult("Error: question parameter is required"), nil
		}

		var reply strings.Builder
		for fragment, err := range streamer.StreamChat(ctx, nil, question) {
			if err != nil {
				logger.Error().Err(err).Msg("Chat stream failed")
				return errorResult(fmt.Sprintf("Chat error: %v", err)), nil
			}
			reply.WriteString(fragment)
		}

		return textResult(reply.String()), nil
	}
}

// handleGenerateImage implements the generate_study_image tool
func handleGenerateImage(generator interfaces.ImageGenerator, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := request.RequireString("prompt")
		prompt = strings.TrimSpace(prompt)
		if err != nil || prompt == "" {
			return errorResult("Error: prompt parameter is required"), nil
		}

		resolution, err := models.ParseImageResolution(request.GetString("resolution", ""))
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		payload, err := generator.GenerateImage(ctx, prompt, resolution)
		if err != nil {
			logger.Error().Err(err).Str("resolution", string(resolution)).Msg("Image generation failed")
			return errorResult(fmt.Sprintf("Image error: %v", err)), nil
		}

		mimeType, data, err := illustrator.DecodeDataURI(payload)
		if err != nil {
			return errorResult(fmt.Sprintf("Image error: %v", err)), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(fmt.Sprintf("Generated %s image (%s, %d bytes)", resolution, mimeType, len(data))),
				mcp.NewImageContent(base64.StdEncoding.EncodeToString(data), mimeType),
			},
		}, nil
	}
}

// handleListHistory implements the list_history tool
func handleListHistory(historyLog HistoryLog, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := request.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		items, err := historyLog.List(ctx, limit)
		if err != nil {
			logger.Error().Err(err).Msg("List history failed")
			return errorResult(fmt.Sprintf("List error: %v", err)), nil
		}

		return textResult(formatHistory(items)), nil
	}
}
