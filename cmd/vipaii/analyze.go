package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
	"github.com/ternarybob/vipaii/internal/app"
	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/history"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a prompt and/or a file and print the explanation",
	Long:  `Sends a question, an image or a document to the analysis model and prints the Vietnamese explanation as Markdown or JSON.`,
	RunE:  runAnalyze,
}

var (
	analyzePrompt string
	analyzeFile   string
	analyzeJSON   bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzePrompt, "prompt", "", "Question or instructions for the assistant")
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "Image or document to analyze")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the raw analysis result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(analyzePrompt)
	if prompt == "" && analyzeFile == "" {
		return fmt.Errorf("please specify --prompt or --file")
	}

	var fileData, mimeType, fileName string
	if analyzeFile != "" {
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		mimeType, _, _ = strings.Cut(mimetype.Detect(data).String(), ";")
		fileData = base64.StdEncoding.EncodeToString(data)
		fileName = filepath.Base(analyzeFile)
	}

	application, err := app.NewCore(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	ctx := cmd.Context()

	result, err := application.LLMService.Analyze(ctx, fileData, mimeType, prompt)
	if err != nil {
		return err
	}

	item, err := application.HistoryService.Record(ctx, prompt, fileName, result)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to record analysis in history")
	}
	if item == nil {
		item = &models.HistoryItem{Timestamp: time.Now(), Prompt: prompt, FileName: fileName, Result: *result}
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(item)
	}

	_, err = fmt.Fprint(out, history.RenderMarkdown(item))
	return err
}
