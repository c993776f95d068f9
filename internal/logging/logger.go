// Package logging builds zap loggers and helpers for keeping log payloads small.
package logging

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger at the given level. format "json" selects the production
// encoder; anything else selects the console development encoder.
func New(levelStr, format string) *zap.Logger {
	level := zapcore.InfoLevel
	switch strings.ToLower(levelStr) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	// stdout belongs to command output
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// RedactedText replaces secrets in logged values.
const RedactedText = "[REDACTED]"

var apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|x-api-key|authorization)(["']?\s*[:=]\s*["']?)([^"'\s,}]+)`)

// TruncateString truncates a string to at most maxLen bytes, cutting on a
// rune boundary, and adds ellipsis if needed.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// SanitizeText masks credential-looking assignments in free text such as
// upstream error bodies.
func SanitizeText(s string) string {
	return apiKeyPattern.ReplaceAllString(s, "${1}${2}"+RedactedText)
}
