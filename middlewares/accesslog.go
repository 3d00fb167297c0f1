// Package middlewares provides ready-made middleware for fawkes servers.
package middlewares

import (
	"context"
	"log/slog"

	"github.com/kingsamchen/fawkes"
)

// AccessLogger logs every request on entry and its status on exit. Attach it
// router-wide so it also observes 404s and handler failures.
type AccessLogger struct {
	logger *slog.Logger
}

// AccessLog creates an access-logging middleware using the default logger.
func AccessLog() *AccessLogger {
	return &AccessLogger{logger: slog.Default()}
}

func (l *AccessLogger) PreHandle(_ context.Context, req *fawkes.Request, _ *fawkes.Response) fawkes.Result {
	l.logger.Info("Entering", "method", req.Method, "target", req.Target())
	return fawkes.Proceed
}

func (l *AccessLogger) PostHandle(_ context.Context, req *fawkes.Request, resp *fawkes.Response) fawkes.Result {
	l.logger.Info("Leave", "target", req.Target(), "status", resp.Status())
	return fawkes.Proceed
}
