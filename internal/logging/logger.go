package logging

import (
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"
)

func stdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	slog.SetDefault(slog.New(stdoutHandler()))
}

// EnableDBSink keeps stdout logging and also persists ERROR+ records to
// system_logs. Stop the returned handler on shutdown to flush the buffer.
func EnableDBSink(db *gorm.DB) *PGHandler {
	pg := NewPGHandler(db, 5*time.Second)
	slog.SetDefault(slog.New(NewMultiHandler(stdoutHandler(), pg)))
	return pg
}
