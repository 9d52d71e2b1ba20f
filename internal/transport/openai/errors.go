package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// parseAPIError turns a client error into "<kind> API error <status>: <message>"
// wrapped with sentinel, so the HTTP layer answers 502.
func parseAPIError(err error, kind string, sentinel error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, bodyMessage(reqErr.Body), sentinel)
	}
	return fmt.Errorf("%s request failed: %w: %w", kind, sentinel, err)
}

// bodyMessage returns the "detail" field some compatible providers use for
// errors, falling back to the raw body.
func bodyMessage(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return string(body)
}
