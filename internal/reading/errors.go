package reading

import (
	"errors"
	"strings"
)

// ErrNoBook is returned by operations that need an open session.
var ErrNoBook = errors.New("no book open")

// ErrorCategory is the user-facing classification of an upstream failure.
// Raw upstream messages are never shown; they are pattern-matched into one of
// these categories before entering session state.
type ErrorCategory string

const (
	ErrorNetwork     ErrorCategory = "network"
	ErrorRateLimited ErrorCategory = "rate_limited"
	ErrorAuth        ErrorCategory = "auth_required"
	ErrorParse       ErrorCategory = "source_parse_failure"
	ErrorUnknown     ErrorCategory = "unknown"
)

var categoryPatterns = []struct {
	category ErrorCategory
	message  string
	patterns []string
}{
	{ErrorRateLimited, "source rate limited the request, please wait and retry",
		[]string{"429", "too many requests", "rate limit", "访问太频繁", "请求过于频繁"}},
	{ErrorAuth, "source requires login, please check source settings",
		[]string{"401", "403", "unauthorized", "forbidden", "login", "请登录", "需要登录"}},
	{ErrorNetwork, "network error, please check your connection and retry",
		[]string{"timeout", "timed out", "deadline exceeded", "connection refused",
			"connection reset", "no such host", "network", "eof"}},
	{ErrorParse, "source failed to parse the page, suggest switching source",
		[]string{"parse", "selector", "unexpected token", "invalid character", "解析"}},
}

// TranslateError maps a raw upstream error onto a category and a message
// suitable for display. Unrecognized errors fall back to a generic retry
// prompt rather than leaking raw technical text.
func TranslateError(err error) (ErrorCategory, string) {
	if err == nil {
		return ErrorUnknown, ""
	}
	raw := strings.ToLower(err.Error())
	for _, entry := range categoryPatterns {
		for _, p := range entry.patterns {
			if strings.Contains(raw, p) {
				return entry.category, entry.message
			}
		}
	}
	return ErrorUnknown, "operation failed, please retry"
}
