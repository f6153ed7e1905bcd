package logger

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Config holds the logger configuration
type Config struct {
	Level     slog.Level
	Format    string    // "json" or "text"
	AddSource bool      // Whether to add source code information
	Writer    io.Writer // Custom writer for output
	SeqURL    string    // Seq ingestion endpoint, empty disables shipping
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    "json",
		AddSource: false,
		Writer:    os.Stdout,
	}
}

// LoadConfig loads the logger configuration from environment variables
func LoadConfig() Config {
	config := DefaultConfig()

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		config.Level = ParseLevel(levelStr, config.Level)
	}

	if format := os.Getenv("LOG_FORMAT"); format == "text" || format == "json" {
		config.Format = format
	}

	if addSourceStr := os.Getenv("LOG_ADD_SOURCE"); addSourceStr != "" {
		if addSource, err := strconv.ParseBool(addSourceStr); err == nil {
			config.AddSource = addSource
		}
	}

	config.SeqURL = os.Getenv("LOG_SEQ_URL")
	return config
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR or a numeric level onto slog.Level,
// returning fallback for anything else.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "INFO", "info":
		return slog.LevelInfo
	case "WARN", "warn":
		return slog.LevelWarn
	case "ERROR", "error":
		return slog.LevelError
	}
	if levelInt, err := strconv.Atoi(s); err == nil {
		return slog.Level(levelInt)
	}
	return fallback
}

// NewLogger creates a new logger with the given configuration. The returned
// function flushes and closes the Seq handler when one is configured.
func NewLogger(config Config) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{
		Level:     config.Level,
		AddSource: config.AddSource,
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stdout
	}

	var handler slog.Handler
	switch config.Format {
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default: // json
		handler = slog.NewJSONHandler(writer, opts)
	}

	if config.SeqURL == "" {
		return slog.New(handler), func() {}
	}

	_, seqHandler := slogseq.NewLogger(
		config.SeqURL,
		slogseq.WithBatchSize(50),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(opts),
	)
	if seqHandler == nil {
		return slog.New(handler), func() {}
	}

	multi := &multiHandler{handlers: []slog.Handler{handler, seqHandler}}
	return slog.New(multi), func() { seqHandler.Close() }
}
