package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	DebugLogger *log.Logger
	InfoLogger  *log.Logger
	WarnLogger  *log.Logger
	ErrorLogger *log.Logger

	minLevel atomic.Int32
)

func init() {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	DebugLogger = log.New(os.Stdout, "DEBUG: ", flags)
	InfoLogger = log.New(os.Stdout, "INFO: ", flags)
	WarnLogger = log.New(os.Stdout, "WARN: ", flags)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", flags)
	minLevel.Store(int32(LevelInfo))
}

// ParseLevel maps LOG_LEVEL values onto a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func SetLevel(l Level) {
	minLevel.Store(int32(l))
}

// SetOutput redirects every level to w. Used by tests to capture log lines.
func SetOutput(w io.Writer) {
	DebugLogger.SetOutput(w)
	InfoLogger.SetOutput(w)
	WarnLogger.SetOutput(w)
	ErrorLogger.SetOutput(w)
}

func enabled(l Level) bool {
	return int32(l) >= minLevel.Load()
}

func Debug(msg string, v ...interface{}) {
	if enabled(LevelDebug) {
		DebugLogger.Printf(msg, v...)
	}
}

func Info(msg string, v ...interface{}) {
	if enabled(LevelInfo) {
		InfoLogger.Printf(msg, v...)
	}
}

func Warn(msg string, v ...interface{}) {
	if enabled(LevelWarn) {
		WarnLogger.Printf(msg, v...)
	}
}

// Error logs msg at error level. When err is non-nil it is appended as ": <err>".
func Error(msg string, err error, v ...interface{}) {
	if !enabled(LevelError) {
		return
	}
	if err != nil {
		ErrorLogger.Printf(msg+": %v", append(v, err)...)
	} else {
		ErrorLogger.Printf(msg, v...)
	}
}
