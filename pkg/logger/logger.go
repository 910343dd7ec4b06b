package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the whole service.
// Init once at startup with the LOG_LEVEL env value; default level is Info.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

var (
	mu    sync.RWMutex
	out   = log.New(os.Stdout, "", 0)
	level = LevelInfo
)

// Init sets the global log level (case-insensitive: debug, info, warn,
// error, fatal). Unknown values fall back to Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

// SetOutput redirects log output; used by tests to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(w, "", 0)
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func emit(l Level, format string, v ...interface{}) {
	mu.RLock()
	w := out
	mu.RUnlock()
	prefix := fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(levelNames[l]))
	w.Printf(prefix+format, v...)
}

func Debugf(format string, v ...interface{}) {
	if enabled(LevelDebug) {
		emit(LevelDebug, format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if enabled(LevelInfo) {
		emit(LevelInfo, format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if enabled(LevelWarn) {
		emit(LevelWarn, format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if enabled(LevelError) {
		emit(LevelError, format, v...)
	}
}

func Fatalf(format string, v ...interface{}) {
	emit(LevelFatal, format, v...)
	os.Exit(1)
}

// Single-string helpers.
func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return levelNames[level]
}
