package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/vipaii/internal/app"
	"github.com/ternarybob/vipaii/internal/common"
)

func main() {
	configPath := os.Getenv("VIPAII_CONFIG")
	if configPath == "" {
		configPath = "vipaii.toml"
	}

	var paths []string
	if _, err := os.Stat(configPath); err == nil {
		paths = append(paths, configPath)
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Console only at warn level so the stdio transport stays clean
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	core, err := app.NewCore(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer core.Close()

	mcpServer := server.NewMCPServer(
		"vipaii",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createAnalyzeContentTool(), handleAnalyzeContent(core.LLMService, core.HistoryService, config.Upload.MaxBytes, logger))
	mcpServer.AddTool(createAskTool(), handleAsk(core.LLMService, logger))
	mcpServer.AddTool(createGenerateImageTool(), handleGenerateImage(core.LLMService, logger))
	mcpServer.AddTool(createListHistoryTool(), handleListHistory(core.HistoryService, logger))

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
