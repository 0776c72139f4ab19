package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. It starts as a console logger so that
// anything logged before Init still shows up.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// Init switches to JSON output in production and sets the level.
func Init(environment string) {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	level := zerolog.DebugLevel
	if environment == "production" {
		out = os.Stderr
		level = zerolog.InfoLevel
	}
	Log = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Writer adapts Log for libraries that want a plain io.Writer.
func Writer(level zerolog.Level) io.Writer {
	return levelWriter{level: level}
}

type levelWriter struct {
	level zerolog.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	n := len(p)
	for n > 0 && (p[n-1] == '\n' || p[n-1] == '\r') {
		n--
	}
	Log.WithLevel(w.level).Msg(string(p[:n]))
	return len(p), nil
}
