package isbclient

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the sink for the client's log lines. Logging never changes
// control flow, so implementations must not panic.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// Field names whose values never reach log output in clear text.
var secretFieldNames = []string{
	"authorization",
	"jwt",
	"token",
	"secret",
	"password",
	"credentials",
}

type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger adapts a zerolog.Logger to Logger.
func NewZerologLogger(log zerolog.Logger) Logger {
	return &zerologLogger{log: log}
}

// NewJSONLogger creates the default JSON logger writing to w.
func NewJSONLogger(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.DebugLevel
	}

	return NewZerologLogger(zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("component", "isb-client").
		Logger())
}

func defaultLogger() Logger {
	return NewJSONLogger(os.Stderr, os.Getenv("ISB_CLIENT_LOG_LEVEL"))
}

func (l *zerologLogger) Debug(msg string, fields map[string]any) {
	l.write(l.log.Debug(), msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields map[string]any) {
	l.write(l.log.Warn(), msg, fields)
}

func (l *zerologLogger) Error(msg string, fields map[string]any) {
	l.write(l.log.Error(), msg, fields)
}

func (l *zerologLogger) write(ev *zerolog.Event, msg string, fields map[string]any) {
	if ev == nil {
		return
	}
	for k, v := range fields {
		if s, ok := v.(string); ok && IsSecretField(k) {
			ev = ev.Str(k, RedactValue(s))
			continue
		}
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// IsSecretField checks if a field name is a known secret field that should be redacted.
func IsSecretField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, secret := range secretFieldNames {
		if strings.Contains(lower, secret) {
			return true
		}
	}
	return false
}

// RedactValue replaces a secret value with a safe placeholder containing a hash prefix.
func RedactValue(value string) string {
	if value == "" {
		return ""
	}
	h := sha256.Sum256([]byte(value))
	return "[REDACTED:sha256:" + hex.EncodeToString(h[:])[:8] + "]"
}
