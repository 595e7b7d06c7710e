package interfaces

import (
	"context"
	"iter"

	"github.com/ternarybob/vipaii/internal/models"
)

// Analyzer produces a structured explanation for a prompt and an optional inline file.
// fileData is base64; both fileData and mimeType must be non-empty for the file to be attached.
type Analyzer interface {
	Analyze(ctx context.Context, fileData, mimeType, textPrompt string) (*models.AnalysisResult, error)
}

// ChatStreamer streams a reply to newMessage given the prior turns.
// The sequence yields text fragments in arrival order; an error is the terminal element.
type ChatStreamer interface {
	StreamChat(ctx context.Context, history []models.ChatMessage, newMessage string) iter.Seq2[string, error]
}

// ImageGenerator generates an image and returns it as a data URI
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, resolution models.ImageResolution) (string, error)
}

// StudyAssistant is the full provider-facing surface of the application
type StudyAssistant interface {
	Analyzer
	ChatStreamer
	ImageGenerator

	// Close releases resources held by the service
	Close() error
}

// KeyGate checks for and prompts the selection of a billable API key
type KeyGate interface {
	// Check reports whether a paid key is selected; true when the host offers no way to tell
	Check(ctx context.Context) bool

	// Prompt starts the host key-selection flow. It returns without confirming that a key
	// is now selected; callers must not assume the key is valid afterwards.
	Prompt(ctx context.Context) error
}
