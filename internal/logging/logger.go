// Package logging provides structured logging for the go-membarrier project
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with membarrier-specific structured fields
type Logger struct {
	zlog    zerolog.Logger
	backend string
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// LogLevel represents the available log levels
type LogLevel int

const (
	LevelDebug LogLevel = LogLevel(zerolog.DebugLevel)
	LevelInfo  LogLevel = LogLevel(zerolog.InfoLevel)
	LevelWarn  LogLevel = LogLevel(zerolog.WarnLevel)
	LevelError LogLevel = LogLevel(zerolog.ErrorLevel)
)

// Config holds logging configuration
type Config struct {
	Level   LogLevel
	Format  string // "json" or "text"
	Output  io.Writer
	Sync    bool // If true, writes are synchronous (useful for testing)
	NoColor bool // If true, disables ANSI color codes (useful for testing)
}

// DefaultConfig returns a sensible default configuration. The library only
// logs during the one-time probe and on fatal barrier failures, so warnings
// and above are enough.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelWarn,
		Format: "text",
		Output: os.Stderr,
	}
}

// asyncWriter wraps an io.Writer with an async buffered channel
type asyncWriter struct {
	out    io.Writer
	ch     chan []byte
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

func newAsyncWriter(w io.Writer, bufferSize int) *asyncWriter {
	aw := &asyncWriter{
		out:  w,
		ch:   make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
	go aw.run()
	return aw
}

func (aw *asyncWriter) run() {
	defer close(aw.done)
	for msg := range aw.ch {
		aw.out.Write(msg)
	}
}

func (aw *asyncWriter) Write(p []byte) (n int, err error) {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	if aw.closed {
		return 0, io.ErrClosedPipe
	}

	// p may be reused by the caller
	msg := make([]byte, len(p))
	copy(msg, p)

	// Drop rather than block when the buffer is full
	select {
	case aw.ch <- msg:
	default:
	}
	return len(p), nil
}

func (aw *asyncWriter) Close() error {
	aw.mu.Lock()
	if !aw.closed {
		aw.closed = true
		close(aw.ch)
	}
	aw.mu.Unlock()
	<-aw.done
	return nil
}

// NewLogger creates a new structured logger
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	var output io.Writer = config.Output
	if !config.Sync {
		output = newAsyncWriter(config.Output, 1000)
	}

	var zlog zerolog.Logger
	switch config.Format {
	case "json":
		zlog = zerolog.New(output).With().Timestamp().Logger()
	default:
		consoleWriter := zerolog.ConsoleWriter{Out: output, NoColor: config.NoColor}
		zlog = zerolog.New(consoleWriter).With().Timestamp().Logger()
	}

	zlog = zlog.Level(zerolog.Level(config.Level))

	return &Logger{
		zlog: zlog,
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Default returns the default logger, creating it if necessary
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// WithBackend returns a logger with barrier backend context
func (l *Logger) WithBackend(backend string) *Logger {
	return &Logger{
		zlog:    l.zlog.With().Str("backend", backend).Logger(),
		backend: backend,
	}
}

// WithOp returns a logger with operation context
func (l *Logger) WithOp(op string) *Logger {
	return &Logger{
		zlog:    l.zlog.With().Str("op", op).Logger(),
		backend: l.backend,
	}
}

// WithError returns a logger with error context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		zlog:    l.zlog.With().Err(err).Logger(),
		backend: l.backend,
	}
}

// Backend returns the backend name attached with WithBackend, if any
func (l *Logger) Backend() string {
	return l.backend
}

func (l *Logger) event(e *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}

// Standard logging methods
func (l *Logger) Debug(msg string, args ...any) { l.event(l.zlog.Debug(), msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.event(l.zlog.Info(), msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.event(l.zlog.Warn(), msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.event(l.zlog.Error(), msg, args) }

// Probe lifecycle

// ProbeRejected logs a candidate that failed verification. Missing facilities
// are expected on older kernels and only logged at debug level.
func (l *Logger) ProbeRejected(backend string, err error, expected bool) {
	rl := l.WithBackend(backend).WithOp("probe").WithError(err)
	if expected {
		rl.Debug("barrier backend rejected")
		return
	}
	rl.Warn("barrier backend rejected")
}

// ProbeSelected logs the backend chosen for the lifetime of the process.
func (l *Logger) ProbeSelected(backend string, processWide bool) {
	sl := l.WithBackend(backend).WithOp("probe")
	if !processWide {
		sl.Warn("no process-wide barrier available; heavy barrier only orders the calling thread", "process_wide", false)
		return
	}
	sl.Info("barrier backend selected", "process_wide", true)
}

// BarrierFailed logs a heavy barrier failure on an already verified backend.
func (l *Logger) BarrierFailed(backend string, err error) {
	l.WithBackend(backend).WithOp("heavy").WithError(err).Error("heavy barrier failed on verified backend")
}

// Convenience functions for global logger
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}
