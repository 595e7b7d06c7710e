package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/interfaces"
	"github.com/ternarybob/vipaii/internal/services/chatbox"
	"github.com/ternarybob/vipaii/internal/services/history"
	"github.com/ternarybob/vipaii/internal/services/illustrator"
	"github.com/ternarybob/vipaii/internal/services/llm"
	"github.com/ternarybob/vipaii/internal/services/sessions"
)

// StatusForError maps a service error to an HTTP status code
func StatusForError(err error) int {
	switch {
	case errors.Is(err, llm.ErrInvalidFileData),
		errors.Is(err, chatbox.ErrEmptyMessage),
		errors.Is(err, illustrator.ErrEmptyPrompt),
		errors.Is(err, history.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrHistoryNotFound),
		errors.Is(err, sessions.ErrSessionNotFound),
		errors.Is(err, illustrator.ErrNoImage):
		return http.StatusNotFound
	case errors.Is(err, chatbox.ErrBusy),
		errors.Is(err, illustrator.ErrBusy),
		errors.Is(err, chatbox.ErrAbandoned),
		errors.Is(err, illustrator.ErrAbandoned):
		return http.StatusConflict
	case llm.IsRateLimitError(err):
		return http.StatusTooManyRequests
	case llm.IsBillingEntityError(err), errors.Is(err, illustrator.ErrKeyNotSelected):
		return http.StatusPaymentRequired
	case errors.Is(err, llm.ErrAPIKeyNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, llm.ErrEmptyResponse),
		errors.Is(err, llm.ErrMalformedResponse),
		errors.Is(err, llm.ErrNoImageProduced),
		llm.ProviderStatus(err) != 0:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError writes err with its mapped status. Internal errors are
// logged and replaced by fallback; provider errors show the provider message.
func WriteServiceError(w http.ResponseWriter, logger arbor.ILogger, err error, fallback string) {
	status := StatusForError(err)

	message := llm.ProviderMessage(err)

	switch status {
	case http.StatusInternalServerError:
		logger.Error().Err(err).Msg(fallback)
		message = fallback
	case http.StatusTooManyRequests:
		if delay := llm.ExtractRetryDelay(err); delay > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		}
		logger.Warn().Err(err).Msg("Provider rate limit reached")
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusPaymentRequired, http.StatusGatewayTimeout:
		logger.Warn().Err(err).Int("status", status).Msg(fallback)
	}

	WriteError(w, status, message)
}
