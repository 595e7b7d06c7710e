package llm

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/genai"
)

var (
	// ErrAPIKeyNotFound is returned when no Gemini API key can be resolved
	ErrAPIKeyNotFound = errors.New("API Key not found")

	// ErrEmptyResponse is returned when the provider replies without any text
	ErrEmptyResponse = errors.New("empty response from Gemini")

	// ErrMalformedResponse is returned when the reply text is not a complete analysis result
	ErrMalformedResponse = errors.New("malformed analysis response from Gemini")

	// ErrNoImageProduced is returned when no candidate carries inline image data
	ErrNoImageProduced = errors.New("no image produced")

	// ErrInvalidFileData is returned when an attached file is not valid base64
	ErrInvalidFileData = errors.New("file data is not valid base64")
)

// billingEntitySignal is the provider message emitted when the selected key has no paid project
const billingEntitySignal = "Requested entity was not found"

// IsBillingEntityError reports whether err is the provider's missing billing entity rejection
func IsBillingEntityError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), billingEntitySignal)
}

// IsRateLimitError checks if an error is a Gemini rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if code := ProviderStatus(err); code != 0 {
		return code == 429
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a Gemini error.
// Returns 0 if no delay is found in the error message.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// ProviderStatus returns the HTTP status code carried by a provider error, or 0
func ProviderStatus(err error) int {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.Code
	}
	return 0
}

// ProviderMessage returns the message to show a user for err: the provider's
// own message when the error came from the API, otherwise the error text.
func ProviderMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := asAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func asAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}
	return genai.APIError{}, false
}
