// Package retention removes generated audio files once they are older than a
// configured age.
package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs a sweep once an hour.
const DefaultSchedule = "@every 1h"

// Janitor periodically deletes files with a matching extension from a directory.
type Janitor struct {
	dir    string
	maxAge time.Duration
	ext    string
	now    func() time.Time
	cron   *cron.Cron
}

// Option configures a Janitor.
type Option func(*Janitor)

// WithClock replaces time.Now for age calculations.
func WithClock(now func() time.Time) Option {
	return func(j *Janitor) {
		j.now = now
	}
}

// WithExtension sets the file extension that is swept. Defaults to ".mp3".
func WithExtension(ext string) Option {
	return func(j *Janitor) {
		j.ext = ext
	}
}

// New creates a Janitor sweeping dir on schedule, a standard five-field cron
// expression or a descriptor such as "@every 30m".
func New(dir string, maxAge time.Duration, schedule string, opts ...Option) (*Janitor, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("max age must be positive, got %s", maxAge)
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}

	j := &Janitor{
		dir:    dir,
		maxAge: maxAge,
		ext:    ".mp3",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	logger := cronLogger{}
	j.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := j.cron.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}

	return j, nil
}

// Start begins running sweeps in the background.
func (j *Janitor) Start() {
	slog.Info("audio retention enabled", "dir", j.dir, "max_age", j.maxAge)
	j.cron.Start()
}

// Shutdown stops scheduling and waits for a running sweep to finish or ctx to expire.
func (j *Janitor) Shutdown(ctx context.Context) error {
	stopped := j.cron.Stop()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("retention shutdown: %w", ctx.Err())
	}
}

func (j *Janitor) run() {
	ctx := context.Background()

	removed, err := j.Sweep(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "audio retention sweep failed", "error", err, "removed", removed)
		return
	}
	if removed > 0 {
		slog.InfoContext(ctx, "audio retention sweep finished", "removed", removed)
	}
}

// Sweep deletes expired files once and reports how many were removed.
// A missing directory is treated as empty.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(j.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", j.dir, err)
	}

	cutoff := j.now().Add(-j.maxAge)

	var (
		removed int
		errs    []error
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(entry.Name()), j.ext) {
			continue
		}

		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}

		slog.DebugContext(ctx, "removed expired audio file", "path", path, "mod_time", info.ModTime())
		removed++
	}

	return removed, errors.Join(errs...)
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
