package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Logger emits structured JSON log entries for a single service mode.
type Logger struct {
	service  string
	hostname string
	handler  *slog.Logger
}

func New(service string) *Logger {
	hostname, _ := os.Hostname()

	handler := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	return &Logger{
		service:  service,
		hostname: hostname,
		handler:  handler,
	}
}

// GenerateRequestID returns a fresh correlation ID for a unit of work.
func GenerateRequestID() string {
	return uuid.NewString()
}

func (l *Logger) attrs(action, requestID string, fields map[string]any) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		slog.String("service", l.service),
		slog.String("hostname", l.hostname),
		slog.String("action", action),
		slog.String("request_id", requestID),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *Logger) Info(action, requestID, message string, fields map[string]any) {
	l.handler.LogAttrs(context.TODO(), slog.LevelInfo, message, l.attrs(action, requestID, fields)...)
}

func (l *Logger) Debug(action, requestID, message string, fields map[string]any) {
	l.handler.LogAttrs(context.TODO(), slog.LevelDebug, message, l.attrs(action, requestID, fields)...)
}

func (l *Logger) Error(action, requestID, message string, err error, fields map[string]any) {
	attrs := l.attrs(action, requestID, fields)
	if err != nil {
		attrs = append(attrs, slog.Group("error",
			slog.String("msg", err.Error()),
			slog.String("stack", string(debug.Stack())),
		))
	}
	l.handler.LogAttrs(context.TODO(), slog.LevelError, message, attrs...)
}
