package common

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
)

// MaskedValue replaces any sensitive value in log output.
const MaskedValue = "***MASKED***"

// SensitivePattern represents a pattern to detect and mask sensitive information
type SensitivePattern struct {
	Name        string         // Pattern name (e.g., "query_token")
	Regex       *regexp.Regexp // Regular expression to match sensitive data
	Replacement string         // Replacement string
	Keys        []string       // Attribute keys masked outright (case-insensitive)
}

// DefaultSensitivePatterns covers the auth token in its three shapes:
// a query parameter, a JSON field, and an Authorization header value.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "query_token",
		Regex:       regexp.MustCompile(`(?i)\b((?:auth_)?token)=([^&\s"]+)`),
		Replacement: "${1}=" + MaskedValue,
		Keys:        []string{"auth_token", "token"},
	},
	{
		Name:        "json_token",
		Regex:       regexp.MustCompile(`(?i)"((?:auth_)?token)"\s*:\s*"[^"]*"`),
		Replacement: `"${1}":"` + MaskedValue + `"`,
		Keys:        []string{},
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer " + MaskedValue,
		Keys:        []string{"authorization"},
	},
}

// Masker handles masking of sensitive information in logs
type Masker struct {
	patterns []SensitivePattern
	enabled  atomic.Bool
}

// NewMasker creates a new masker with default patterns
func NewMasker() *Masker {
	return NewMaskerWithPatterns(DefaultSensitivePatterns)
}

// NewMaskerWithPatterns creates a new masker with custom patterns
func NewMaskerWithPatterns(patterns []SensitivePattern) *Masker {
	m := &Masker{patterns: patterns}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool {
	return m.enabled.Load()
}

// AddPattern adds a new sensitive pattern. A pattern without a regex gets one
// built from its keys in key=value form.
func (m *Masker) AddPattern(pattern SensitivePattern) {
	if pattern.Regex == nil && len(pattern.Keys) > 0 {
		keyPattern := strings.Join(pattern.Keys, "|")
		pattern.Regex = regexp.MustCompile(fmt.Sprintf(`(?i)\b(%s)=([^&\s"]+)`, keyPattern))
		if pattern.Replacement == "" {
			pattern.Replacement = "${1}=" + MaskedValue
		}
	}
	m.patterns = append(m.patterns, pattern)
}

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.IsEnabled() {
		return input
	}

	result := input
	for _, pattern := range m.patterns {
		if pattern.Regex == nil {
			continue
		}
		result = pattern.Regex.ReplaceAllString(result, pattern.Replacement)
	}
	return result
}

// MaskValue masks sensitive information based on key-value context
func (m *Masker) MaskValue(key string, value interface{}) interface{} {
	if !m.IsEnabled() {
		return value
	}

	lowerKey := strings.ToLower(key)
	for _, pattern := range m.patterns {
		for _, sensitiveKey := range pattern.Keys {
			if lowerKey == strings.ToLower(sensitiveKey) {
				return MaskedValue
			}
		}
	}

	strValue, ok := value.(string)
	if !ok {
		return value
	}
	return m.MaskString(strValue)
}

// Global masker instance
var globalMasker = NewMasker()

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string {
	return globalMasker.MaskString(input)
}

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) {
	globalMasker.SetEnabled(enabled)
}
