package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LevelTrace LogLevel = iota - 1
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// slog levels are 4 apart; ours are consecutive.
func (l LogLevel) slog() slog.Level { return slog.Level(int(l) * 4) }

// LogConfig holds logging configuration
type LogConfig struct {
	Level       LogLevel `json:"level"`
	Format      string   `json:"format"`       // "json" or "text"
	Output      string   `json:"output"`       // "stdout", "stderr", "discard", or file path
	EnableAsync bool     `json:"enable_async"` // Enable async logging
}

// Logger provides structured logging with context support
type Logger struct {
	config  LogConfig
	slogger *slog.Logger
	file    *os.File
	asyncCh chan LogEntry
	wg      sync.WaitGroup
	once    sync.Once
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Component string
	Adapter   string
	Ref       string
	RunID     string
	Error     string
	Fields    map[string]interface{}
	Caller    string
}

type ctxKey string

const (
	adapterKey ctxKey = "adapter"
	refKey     ctxKey = "ref"
	runIDKey   ctxKey = "run_id"
)

// WithAdapter tags ctx with the adapter producing the current record.
func WithAdapter(ctx context.Context, adapter string) context.Context {
	return context.WithValue(ctx, adapterKey, adapter)
}

// WithRef tags ctx with the site-local reference of the current record.
func WithRef(ctx context.Context, ref string) context.Context {
	return context.WithValue(ctx, refKey, ref)
}

// WithRunID tags ctx with the batch run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// DefaultLogConfig returns sensible default logging configuration
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  LevelInfo,
		Format: "json",
		Output: "stderr",
	}
}

// ParseLevel maps "trace".."fatal" to a LogLevel; unknown values are info.
func ParseLevel(level string) LogLevel {
	return levelFromString(strings.ToUpper(strings.TrimSpace(level)))
}

// NewLogger creates a new structured logger
func NewLogger(config LogConfig) (*Logger, error) {
	logger := &Logger{config: config}

	var writer io.Writer
	switch config.Output {
	case "", "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	case "discard":
		writer = io.Discard
	default:
		if err := logger.setupFileLogging(config.Output); err != nil {
			return nil, fmt.Errorf("failed to setup file logging: %w", err)
		}
		writer = logger.file
	}

	opts := &slog.HandlerOptions{Level: config.Level.slog()}

	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}
	logger.slogger = slog.New(handler)

	if config.EnableAsync {
		logger.asyncCh = make(chan LogEntry, 1000)
		logger.wg.Add(1)
		go logger.asyncWorker()
	}

	return logger, nil
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	l, _ := NewLogger(LogConfig{Level: LevelFatal, Output: "discard"})
	return l
}

// setupFileLogging creates log directory and file
func (l *Logger) setupFileLogging(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.file = file
	return nil
}

// asyncWorker drains entries until the channel is closed.
func (l *Logger) asyncWorker() {
	defer l.wg.Done()
	for entry := range l.asyncCh {
		l.writeEntry(entry)
	}
}

// writeEntry writes a log entry to the output
func (l *Logger) writeEntry(entry LogEntry) {
	attrs := make([]slog.Attr, 0, len(entry.Fields)+6)
	if entry.Component != "" {
		attrs = append(attrs, slog.String("component", entry.Component))
	}
	if entry.RunID != "" {
		attrs = append(attrs, slog.String("run_id", entry.RunID))
	}
	if entry.Adapter != "" {
		attrs = append(attrs, slog.String("adapter", entry.Adapter))
	}
	if entry.Ref != "" {
		attrs = append(attrs, slog.String("ref", entry.Ref))
	}
	if entry.Error != "" {
		attrs = append(attrs, slog.String("error", entry.Error))
	}
	if entry.Caller != "" {
		attrs = append(attrs, slog.String("caller", entry.Caller))
	}
	for key, value := range entry.Fields {
		attrs = append(attrs, slog.Any(key, value))
	}

	l.slogger.LogAttrs(context.Background(), entry.Level.slog(), entry.Message, attrs...)
}

// Close flushes pending entries and closes the log file, if any.
func (l *Logger) Close() error {
	var err error
	l.once.Do(func() {
		if l.asyncCh != nil {
			close(l.asyncCh)
			l.wg.Wait()
		}
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// WithContext returns a logger with context information
func (l *Logger) WithContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: l, ctx: ctx}
}

// WithComponent returns a logger with component information
func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

// ContextLogger provides context-aware logging
type ContextLogger struct {
	logger    *Logger
	ctx       context.Context
	component string
}

// ComponentLogger provides component-specific logging
type ComponentLogger struct {
	logger    *Logger
	component string
}

func (l *Logger) Trace(msg string, fields ...Field) { l.log(context.Background(), "", LevelTrace, msg, "", fields...) }
func (l *Logger) Debug(msg string, fields ...Field) { l.log(context.Background(), "", LevelDebug, msg, "", fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(context.Background(), "", LevelInfo, msg, "", fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(context.Background(), "", LevelWarn, msg, "", fields...) }

func (l *Logger) Error(msg string, err error, fields ...Field) {
	l.log(context.Background(), "", LevelError, msg, errString(err), fields...)
}

// Fatal logs at fatal level and exits
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	l.log(context.Background(), "", LevelFatal, msg, errString(err), fields...)
	l.Close()
	os.Exit(1)
}

// ComponentLogger methods
func (cl *ComponentLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(context.Background(), cl.component, LevelDebug, msg, "", fields...)
}

func (cl *ComponentLogger) Info(msg string, fields ...Field) {
	cl.logger.log(context.Background(), cl.component, LevelInfo, msg, "", fields...)
}

func (cl *ComponentLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(context.Background(), cl.component, LevelWarn, msg, "", fields...)
}

func (cl *ComponentLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(context.Background(), cl.component, LevelError, msg, errString(err), fields...)
}

// WithContext binds ctx to the component logger.
func (cl *ComponentLogger) WithContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{logger: cl.logger, ctx: ctx, component: cl.component}
}

// ContextLogger methods
func (cl *ContextLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, cl.component, LevelDebug, msg, "", fields...)
}

func (cl *ContextLogger) Info(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, cl.component, LevelInfo, msg, "", fields...)
}

func (cl *ContextLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(cl.ctx, cl.component, LevelWarn, msg, "", fields...)
}

func (cl *ContextLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(cl.ctx, cl.component, LevelError, msg, errString(err), fields...)
}

func (l *Logger) log(ctx context.Context, component string, level LogLevel, msg, errorStr string, fields ...Field) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Component: component,
		Error:     errorStr,
		Fields:    make(map[string]interface{}, len(fields)),
	}
	if v, ok := ctx.Value(adapterKey).(string); ok {
		entry.Adapter = v
	}
	if v, ok := ctx.Value(refKey).(string); ok {
		entry.Ref = v
	}
	if v, ok := ctx.Value(runIDKey).(string); ok {
		entry.RunID = v
	}

	if level >= LevelWarn {
		if _, file, line, ok := runtime.Caller(2); ok {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	for _, field := range fields {
		field.AddTo(entry.Fields)
	}

	if l.asyncCh != nil {
		select {
		case l.asyncCh <- entry:
		default:
			// Async buffer full, log synchronously
			l.writeEntry(entry)
		}
		return
	}
	l.writeEntry(entry)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// AddTo adds the field to the provided map
func (f Field) AddTo(m map[string]interface{}) {
	m[f.Key] = f.Value
}

// Field constructors
func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func levelFromString(level string) LogLevel {
	switch level {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}
