package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger handles dual-output logging: a human console stream and a JSON log file
type Logger struct {
	zl       zerolog.Logger // console + file
	fileOnly zerolog.Logger
	console  io.Writer
	logFile  *os.File
	verbose  bool
}

var globalLogger *Logger

// Init initializes the global logger
// consoleOutput: where to write INFO+ logs (typically os.Stdout)
// logFilePath: path to the JSON log file, which receives every level
// verbose: if true, show DEBUG logs on console as well
func Init(consoleOutput io.Writer, logFilePath string, verbose bool) error {
	logDir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	minLevel := LevelInfo
	if verbose {
		minLevel = LevelDebug
	}

	console := zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: newConsoleWriter(consoleOutput)},
		Level:  minLevel.zerolog(),
	}
	multi := zerolog.MultiLevelWriter(&console, logFile)

	globalLogger = &Logger{
		zl:       zerolog.New(multi).Level(zerolog.DebugLevel).With().Timestamp().Logger(),
		fileOnly: zerolog.New(logFile).With().Timestamp().Logger(),
		console:  consoleOutput,
		logFile:  logFile,
		verbose:  verbose,
	}

	return nil
}

// newConsoleWriter keeps console output clean: no timestamps, INFO without prefix
func newConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:          out,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
		FormatLevel: func(i interface{}) string {
			switch fmt.Sprint(i) {
			case zerolog.LevelDebugValue:
				return "[DEBUG]"
			case zerolog.LevelWarnValue:
				return "⚠️ "
			case zerolog.LevelErrorValue:
				return "❌"
			default:
				return ""
			}
		},
	}
}

// Close closes the log file
func Close() {
	if globalLogger != nil && globalLogger.logFile != nil {
		globalLogger.logFile.Close()
	}
}

// Debug logs a debug message (file only, unless verbose)
func Debug(format string, args ...interface{}) {
	if globalLogger == nil {
		return
	}
	globalLogger.zl.Debug().Msgf(format, args...)
}

// Info logs an info message (console + file)
func Info(format string, args ...interface{}) {
	if globalLogger == nil {
		fmt.Printf(format+"\n", args...)
		return
	}
	globalLogger.zl.Info().Msgf(format, args...)
}

// Warn logs a warning message (console + file)
func Warn(format string, args ...interface{}) {
	if globalLogger == nil {
		fmt.Printf("WARN: "+format+"\n", args...)
		return
	}
	globalLogger.zl.Warn().Msgf(format, args...)
}

// Error logs an error message (console + file)
func Error(format string, args ...interface{}) {
	if globalLogger == nil {
		fmt.Printf("ERROR: "+format+"\n", args...)
		return
	}
	globalLogger.zl.Error().Msgf(format, args...)
}

// InfoClean prints a line to the console only, without level or fields.
// Useful for tables and summaries that don't belong in the log file.
func InfoClean(format string, args ...interface{}) {
	if globalLogger == nil {
		fmt.Printf(format+"\n", args...)
		return
	}
	fmt.Fprintf(globalLogger.console, format+"\n", args...)
}

// LogPrompt records a fully assembled prompt in the log file only.
// Prompts are large; the console gets a one-line debug note instead.
func LogPrompt(stage, system, user string) {
	if globalLogger == nil {
		return
	}

	globalLogger.fileOnly.Debug().
		Str("event", "prompt").
		Str("stage", stage).
		Str("system", system).
		Str("user", user).
		Msg("assembled prompt")

	Debug("Prompt for %s stage: %d characters", stage, len(system)+len(user))
}

// GetLogFilePath returns the path to the current log file
func GetLogFilePath() string {
	if globalLogger != nil && globalLogger.logFile != nil {
		return globalLogger.logFile.Name()
	}
	return ""
}

// IsVerbose returns whether verbose logging is enabled
func IsVerbose() bool {
	if globalLogger == nil {
		return false
	}
	return globalLogger.verbose
}

// Entry is a logger scoped with structured fields
type Entry struct {
	zl zerolog.Logger
}

// With returns a scoped logger carrying fields on every line.
// Before Init the returned entry discards output.
func With(fields map[string]interface{}) *Entry {
	if globalLogger == nil {
		return &Entry{zl: zerolog.Nop()}
	}
	return &Entry{zl: globalLogger.zl.With().Fields(fields).Logger()}
}

// With adds more fields to an existing scope
func (e *Entry) With(fields map[string]interface{}) *Entry {
	return &Entry{zl: e.zl.With().Fields(fields).Logger()}
}

func (e *Entry) Debug(format string, args ...interface{}) { e.zl.Debug().Msgf(format, args...) }
func (e *Entry) Info(format string, args ...interface{})  { e.zl.Info().Msgf(format, args...) }
func (e *Entry) Warn(format string, args ...interface{})  { e.zl.Warn().Msgf(format, args...) }

// Error logs at error level, attaching err when not nil
func (e *Entry) Error(err error, format string, args ...interface{}) {
	ev := e.zl.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msgf(format, args...)
}
