package logger

import "strings"

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
	"bearer",
}

// Keys that contain a sensitive pattern but carry public data.
var publicKeys = map[string]bool{
	"auth_url":     true,
	"auth_version": true,
	"token_source": true,
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactArgs walks hclog-style key/value pairs and masks the values of
// sensitive keys. The input slice is never modified.
func redactArgs(args []any) []any {
	if len(args) < 2 {
		return args
	}
	out := make([]any, len(args))
	copy(out, args)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok || !IsSensitiveKey(key) {
			continue
		}
		if s, ok := out[i+1].(string); ok && s == "" {
			continue
		}
		out[i+1] = redactedValue
	}
	return out
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if publicKeys[keyLower] {
		return false
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// MaskSecret keeps the first and last three characters of a secret.
// Format: first 3 chars + "..." + last 3 chars
func MaskSecret(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}
