// Package storage keeps uploaded meal photos on local disk.
//
// This is deliberately the simplest thing that works: a flat directory of
// files named after their owner and upload time. The ImageStore type is
// small enough that a future S3/GCS implementation can replace it behind
// the same method set without touching the meal pipeline.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
)

// ImageStore writes, removes, and expires uploaded images under a single
// directory.
type ImageStore struct {
	dir    string
	logger *slog.Logger
}

// NewImageStore creates the upload directory if needed and returns a store
// rooted there.
func NewImageStore(dir string, logger *slog.Logger) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating upload dir %s: %w", dir, err)
	}
	return &ImageStore{dir: dir, logger: logger}, nil
}

// Save writes the image bytes to disk and returns the path (relative to the
// process working directory) for the meal record's image ref.
//
// The name encodes the owner and upload time — user_<id>_<timestamp>_<xid><ext>.
// The xid suffix keeps two uploads in the same second from colliding. The
// extension comes from the client's filename but the CONTENT was already
// validated against the MIME allow-list before we get here, so a lying
// extension is cosmetic, not a security hole.
func (s *ImageStore) Save(userID, originalFilename string, image []byte) (string, error) {
	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = ".jpg"
	}
	// Never let a crafted filename inject path separators into ours.
	ext = filepath.Base(ext)

	name := fmt.Sprintf("user_%s_%s_%s%s",
		userID,
		time.Now().Format("20060102_150405"),
		xid.New().String(),
		ext,
	)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, image, 0o644); err != nil {
		return "", fmt.Errorf("storage: writing image %s: %w", path, err)
	}

	return path, nil
}

// Remove deletes a stored image. Removing an already-absent file is fine —
// the auto-delete path and the retention sweep can race.
func (s *ImageStore) Remove(path string) error {
	// Only ever delete inside our own directory, whatever the ref says.
	// The separator is part of the prefix — a bare-prefix check would let a
	// sibling like "uploads-evil" pass for dir "uploads".
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return fmt.Errorf("storage: refusing to remove %s: outside upload dir", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: removing image %s: %w", path, err)
	}
	return nil
}

// SweepExpired deletes images older than maxAge, returning how many were
// removed. Meant to be called periodically from the server's background
// goroutine; uploads that auto-delete never reach this path.
func (s *ImageStore) SweepExpired(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("storage: reading upload dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // deleted between ReadDir and Info
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("retention sweep failed to remove image", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("retention sweep removed expired images", "count", removed)
	}
	return removed, nil
}
