package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/vipaii/internal/models"
	"github.com/ternarybob/vipaii/internal/services/history"
)

// formatAnalysis formats an analysis as markdown, with its history ID when recorded
func formatAnalysis(item *models.HistoryItem) string {
	var sb strings.Builder
	if item.ID != "" {
		sb.WriteString(fmt.Sprintf("**History ID:** %s\n\n", item.ID))
	}
	sb.WriteString(history.RenderMarkdown(item))
	return sb.String()
}

// formatHistory formats a history listing as markdown
func formatHistory(items []*models.HistoryItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Recent Analyses (%d)\n\n", len(items)))

	if len(items) == 0 {
		sb.WriteString("No analyses recorded.\n")
		return sb.String()
	}

	for i, item := range items {
		title := item.Prompt
		if title == "" {
			title = item.FileName
		}
		if runes := []rune(title); len(runes) > 80 {
			title = string(runes[:80]) + "..."
		}
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s)\n", i+1, title, item.ID))
		sb.WriteString(fmt.Sprintf("   Recorded: %s\n", item.Timestamp.Format(time.RFC3339)))
		if item.FileName != "" {
			sb.WriteString(fmt.Sprintf("   File: %s\n", item.FileName))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
