package utils

import (
	"context"
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured logger: JSON lines on
// stdout, leveled, safe for concurrent use by every goroutine it's handed
// to. Callers construct this once at process start and thread it through
// explicitly (cmd, HTTP handlers, ingest, matcher) rather than reaching for
// a package-level global.
func NewLogger() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(handler)
}

// ErrAttr formats err as a slog attribute under the "error" key. The value
// is passed to slog.Any as is; *apperr.Error is not a slog.LogValuer, so the
// JSON handler writes its Error() text (message plus cause text). The stack
// trace captured in the wrapped go-xerrors cause is not written.
func ErrAttr(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Any("error", err)
}

// LogCancelled logs ctx.Err() at info level with the operation name. No code
// in this module calls it; FingerprintAudioChunked reports a done context by
// returning an apperr.Cancelled error instead.
func LogCancelled(ctx context.Context, logger *slog.Logger, op string) {
	logger.InfoContext(ctx, "operation cancelled", slog.String("op", op), ErrAttr(ctx.Err()))
}
