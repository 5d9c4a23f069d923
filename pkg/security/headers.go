package security

import (
	"fmt"
	"net/http"
	"strings"
)

// Headers matching any of these substrings are redacted before storage.
var sensitiveHeaderPatterns = []string{
	"auth", "authorization", "token", "key", "secret", "password",
	"credential", "session", "cookie", "signature", "bearer",
	"api_key", "apikey", "access_token", "refresh_token", "jwt",
	"stripe", "payment", "billing", "card", "account", "client_secret",
	"webhook_secret", "private", "confidential", "internal",
}

const maxNonSensitiveHeaderLength = 200

// IsSensitiveHeader reports whether a header name matches a sensitive pattern.
func IsSensitiveHeader(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, pattern := range sensitiveHeaderPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// RedactValue masks a sensitive header value. Long values collapse to a
// length marker; short ones keep two characters on each end for debugging.
func RedactValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) > 100 {
		return fmt.Sprintf("[REDACTED-%dchars]", len(value))
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "..." + value[len(value)-2:]
}

// RedactHeaders returns a copy of the request headers safe for persistence:
// sensitive values masked, non-sensitive values truncated to keep stored
// payloads bounded.
func RedactHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	masked := make(map[string]string, len(headers))
	for name, values := range headers {
		value := strings.Join(values, ", ")
		if IsSensitiveHeader(name) {
			masked[name] = RedactValue(value)
			continue
		}
		if len(value) > maxNonSensitiveHeaderLength {
			value = value[:maxNonSensitiveHeaderLength] + "..."
		}
		masked[name] = value
	}
	return masked
}
