package llm

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/ternarybob/vipaii/internal/models"
	"google.golang.org/genai"
)

// convertHistoryToGemini maps transcript turns to Gemini contents.
// Empty turns are skipped because the provider rejects empty parts.
func convertHistoryToGemini(history []models.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}

		var role string
		switch msg.Role {
		case models.ChatRoleModel:
			role = genai.RoleModel
		default:
			role = genai.RoleUser
		}

		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}
	return contents
}

// StreamChat streams the assistant's reply to newMessage in a chat seeded with history.
//
// The returned sequence yields text fragments in provider order without
// buffering or coalescing. A failure is yielded once as the terminal element.
// The sequence is single-use; the stream timeout and ctx bound its whole life.
func (s *GeminiService) StreamChat(ctx context.Context, history []models.ChatMessage, newMessage string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		streamCtx, cancel := context.WithTimeout(ctx, s.streamTimeout)
		defer cancel()

		if err := s.wait(streamCtx); err != nil {
			yield("", err)
			return
		}

		config := s.baseConfig()
		config.SystemInstruction = genai.NewContentFromText(chatSystemInstruction, genai.RoleUser)

		startTime := time.Now()
		fragments := 0

		s.logger.Debug().
			Str("model", s.config.ChatModel).
			Int("history_length", len(history)).
			Int("message_length", len(newMessage)).
			Msg("Starting chat stream")

		for resp, err := range s.backend.StreamChat(streamCtx, s.config.ChatModel, config, convertHistoryToGemini(history), newMessage) {
			if err != nil {
				s.logger.Error().
					Err(err).
					Int("fragments", fragments).
					Dur("duration", time.Since(startTime)).
					Msg("Chat stream failed")
				yield("", err)
				return
			}

			fragments++
			if !yield(responseText(resp), nil) {
				s.logger.Debug().Int("fragments", fragments).Msg("Chat stream consumer stopped early")
				return
			}
		}

		s.logger.Debug().
			Int("fragments", fragments).
			Dur("duration", time.Since(startTime)).
			Msg("Chat stream completed")
	}
}
