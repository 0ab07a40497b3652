// Package logger wraps log/slog for reelgen binaries and workers. Every record
// carries the service name; request and job identifiers travel on the context.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"reelgen/internal/config"
)

// Standard attribute keys.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldStage     = "stage"
	FieldError     = "error"
)

// Logger is a slog.Logger with reelgen's scoping helpers.
type Logger struct {
	*slog.Logger
}

// Config controls handler construction.
type Config struct {
	// Level is one of debug, info, warn, error. Anything else means info.
	Level string
	// Format is json or text; json when empty.
	Format string
	// Output defaults to os.Stdout.
	Output    io.Writer
	AddSource bool
	// ServiceName is attached to every record when set.
	ServiceName string
}

// FromConfig builds the Config for one binary from the [logging] table.
func FromConfig(cfg config.Logging, service string, out io.Writer) Config {
	return Config{
		Level:       cfg.Level,
		Format:      cfg.Format,
		Output:      out,
		AddSource:   cfg.AddSource,
		ServiceName: service,
	}
}

// New creates a Logger. Timestamps are written in UTC.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: utcTime,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}
	if cfg.ServiceName != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String(FieldService, cfg.ServiceName)})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewFromConfig is New(FromConfig(cfg, service, out)).
func NewFromConfig(cfg config.Logging, service string, out io.Writer) *Logger {
	return New(FromConfig(cfg, service, out))
}

// NewDefault is used before configuration has been loaded.
func NewDefault() *Logger {
	return New(Config{ServiceName: "reelgen"})
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String(key, value))}
}

func (l *Logger) WithRequestID(requestID string) *Logger { return l.with(FieldRequestID, requestID) }

func (l *Logger) WithJobID(jobID string) *Logger { return l.with(FieldJobID, jobID) }

func (l *Logger) WithComponent(component string) *Logger { return l.with(FieldComponent, component) }

// WithStage tags records with the job stage being executed.
func (l *Logger) WithStage(stage string) *Logger { return l.with(FieldStage, stage) }

// WithError attaches err's text; a nil error returns l unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with(FieldError, err.Error())
}

// LogFatal logs at error level and exits. Only binaries call this.
func (l *Logger) LogFatal(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, FieldError, err.Error())
	}
	l.Error(msg, args...)
	os.Exit(1)
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
