package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAnalyzeContentTool returns the analyze_content tool definition
func createAnalyzeContentTool() mcp.Tool {
	return mcp.NewTool("analyze_content",
		mcp.WithDescription("Explain a homework question, image or document in Vietnamese"),
		mcp.WithString("prompt",
			mcp.Description("Question or instructions for the assistant"),
		),
		mcp.WithString("file_path",
			mcp.Description("Local path of an image or document to analyze"),
		),
	)
}

// createAskTool returns the ask_vipaii tool definition
func createAskTool() mcp.Tool {
	return mcp.NewTool("ask_vipaii",
		mcp.WithDescription("Ask the Vietnamese study assistant a single question and get the full reply"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to ask"),
		),
	)
}

// createGenerateImageTool returns the generate_study_image tool definition
func createGenerateImageTool() mcp.Tool {
	return mcp.NewTool("generate_study_image",
		mcp.WithDescription("Draw a square study illustration from a description"),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Description of the illustration"),
		),
		mcp.WithString("resolution",
			mcp.Description("Output size: 1K (default), 2K or 4K"),
		),
	)
}

func createListHistoryTool() mcp.Tool {
	return mcp.NewTool("list_history",
		mcp.WithDescription("List the most recent analyses"),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 100)"),
		),
	)
}
