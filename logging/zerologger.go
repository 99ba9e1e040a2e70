package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	TableIDKey string = "tableID"
	HandIDKey  string = "handID"
	HandNumKey string = "handNo"
	SeatNumKey string = "seatNo"
	PlayerKey  string = "playerID"
	PhaseKey   string = "phase"
	ActionKey  string = "action"
	PurposeKey string = "purpose"
)

var (
	outputLock  sync.RWMutex
	extraOutput io.Writer
)

func getEnableColorLog() string {
	v := os.Getenv("COLORIZE_LOG")
	if v == "" {
		// Use colorized logging by default.
		return "true"
	}
	return v
}

func IsColorLoggingEnabled() bool {
	return getEnableColorLog() == "1" || strings.ToLower(getEnableColorLog()) == "true"
}

// teeWriter forwards to the console and, once configured, to the rotating file.
type teeWriter struct {
	console io.Writer
}

func (t teeWriter) Write(p []byte) (int, error) {
	outputLock.RLock()
	extra := extraOutput
	outputLock.RUnlock()
	if extra != nil {
		extra.Write(p)
	}
	return t.console.Write(p)
}

// SetupFileOutput mirrors all loggers into a rotating file.
func SetupFileOutput(filename string) error {
	if filename == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	outputLock.Lock()
	defer outputLock.Unlock()
	extraOutput = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return nil
}

// SetLevel parses a level name and applies it globally. Unknown names fall back to info.
func SetLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
	return l
}

func GetZeroLogger(name string, out io.Writer) *zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	noColor := !IsColorLoggingEnabled()
	output := teeWriter{console: zerolog.ConsoleWriter{Out: out, NoColor: noColor, TimeFormat: time.RFC3339}}
	logger := zerolog.New(output).With().Timestamp().Str("logger", name).Logger()
	return &logger
}
