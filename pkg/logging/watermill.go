package logging

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// watermillLevels folds Watermill's trace level into debug.
var watermillLevels = map[slog.Level]slog.Level{
	slog.LevelDebug - 4: slog.LevelDebug,
	slog.LevelDebug:     slog.LevelDebug,
	slog.LevelInfo:      slog.LevelInfo,
	slog.LevelWarn:      slog.LevelWarn,
	slog.LevelError:     slog.LevelError,
}

// Watermill adapts log for Watermill publishers and subscribers.
func Watermill(log *slog.Logger) watermill.LoggerAdapter {
	if log == nil {
		log = Nop()
	}
	return watermill.NewSlogLoggerWithLevelMapping(log, watermillLevels)
}
