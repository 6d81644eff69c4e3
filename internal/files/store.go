// Package files owns the working directory that holds rendered PDFs until
// they are uploaded and swept.
package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/lnmubot/core/logger"
)

// Store hands out unique output paths under Dir and removes files older
// than MaxAge.
type Store struct {
	Dir    string
	MaxAge time.Duration
}

// New returns a Store for dir.
func New(dir string, maxAge time.Duration) *Store {
	return &Store{Dir: dir, MaxAge: maxAge}
}

// Prepare creates the working directory if needed.
func (s *Store) Prepare() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("files: empty directory")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("files: prepare %s: %w", s.Dir, err)
	}
	return nil
}

// ResultPath returns <dir>/<uuid>.pdf.
func (s *Store) ResultPath() string {
	return filepath.Join(s.Dir, uuid.NewString()+".pdf")
}

// AdmitCardPath returns <dir>/AdmitCard_<roll>_<suffix>.pdf. The suffix
// keeps two requests for the same roll number apart.
func (s *Store) AdmitCardPath(roll string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return filepath.Join(s.Dir, fmt.Sprintf("AdmitCard_%s_%s.pdf", SafeName(roll), suffix))
}

// SafeName keeps letters, digits, '-' and '_' from name. Anything else
// becomes '_'; an empty result becomes "unknown".
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 64 {
			break
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// Sweep deletes regular files whose modification time is strictly older
// than now-MaxAge. Directories and their contents are left alone. It
// returns the removed file names; files that vanish concurrently are skipped.
func (s *Store) Sweep(now time.Time) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("files: sweep %s: %w", s.Dir, err)
	}

	cutoff := now.Add(-s.MaxAge)
	var (
		removed []string
		errs    []error
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, entry.Name())); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		removed = append(removed, entry.Name())
	}
	return removed, errors.Join(errs...)
}

// Run sweeps every interval until ctx is done. onSweep, if set, receives
// the number of removed files.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(int)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := s.Sweep(now)
			if err != nil {
				logger.LogEvent(ctx, logger.Files, slog.LevelWarn, "sweep.fail",
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
			if len(removed) > 0 {
				logger.LogEvent(ctx, logger.Files, slog.LevelInfo, "sweep.tick",
					slog.String("status", "ok"),
					slog.Int("removed", len(removed)),
				)
			}
			if onSweep != nil {
				onSweep(len(removed))
			}
		}
	}
}
