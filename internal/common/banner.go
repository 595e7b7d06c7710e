package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved endpoints
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple(AppName, GetVersion())

	logger.Info().
		Str("version", GetVersionInfo().String()).
		Str("environment", config.Environment).
		Str("analysis_model", config.Gemini.AnalysisModel).
		Str("chat_model", config.Gemini.ChatModel).
		Str("image_model", config.Gemini.ImageModel).
		Msg("Vipaii study assistant")
}
