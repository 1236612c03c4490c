package openrouter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"llmarena/internal/domain"
)

// upstreamError is the structured error body the API returns on non-2xx
// responses.
type upstreamError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

const dataPolicyRemedy = `You must enable "Free model publication" in your OpenRouter privacy settings to use this model. Visit https://openrouter.ai/settings/privacy`

// classifyError maps a non-success HTTP response to an error kind and a
// human-readable message. The structured error message is preferred; the
// raw body is the fallback.
func classifyError(status int, body []byte) (domain.ErrorKind, string) {
	message := strings.TrimSpace(string(body))
	var parsed upstreamError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}

	lower := strings.ToLower(message)

	switch {
	case status == http.StatusTooManyRequests || strings.Contains(lower, "rate limit") || strings.Contains(lower, "rate-limit"):
		return domain.ErrorKindRateLimited, message
	case strings.Contains(lower, "data policy") || strings.Contains(message, "Free model publication"):
		return domain.ErrorKindDataPolicy, fmt.Sprintf("Data policy error: %s", dataPolicyRemedy)
	default:
		return domain.ErrorKindUpstream, fmt.Sprintf("upstream error: status=%d %s", status, message)
	}
}
