// Package attach implements the pending-attachment queue: two directories
// that external producers (usually the agent itself) drop files into, drained
// and delivered alongside the next outgoing reply.
package attach

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tags how a pending file should be delivered.
type Kind string

const (
	// KindImage is delivered as a photo.
	KindImage Kind = "image"
	// KindDocument is delivered as a generic file.
	KindDocument Kind = "document"
)

const (
	// ImagesDirName holds files always sent as photos.
	ImagesDirName = "pending_images"
	// DocumentsDirName holds files of any type; image extensions are still
	// sent as photos, everything else as documents.
	DocumentsDirName = "pending_attachments"

	dirPerm = 0o700
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Attachment is a queued file ready to send.
type Attachment struct {
	Path string
	Kind Kind
}

// Queue lists, enqueues and deletes pending attachments.
type Queue struct {
	imagesDir    string
	documentsDir string
	logger       *slog.Logger
}

// NewQueue creates a queue rooted at the given state directory.
func NewQueue(stateDir string, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		imagesDir:    filepath.Join(stateDir, ImagesDirName),
		documentsDir: filepath.Join(stateDir, DocumentsDirName),
		logger:       logger,
	}
}

// Enqueue copies src into the queue under a unique name and returns the
// destination path. Unique names mean concurrent enqueues never overwrite
// each other, and an enqueue can never collide with an in-flight drain.
func (q *Queue) Enqueue(src string, kind Kind) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", src)
	}

	ext := strings.ToLower(filepath.Ext(src))
	if kind == KindImage && !imageExtensions[ext] {
		return "", fmt.Errorf("not an image file: %s", src)
	}

	dir := q.documentsDir
	if kind == KindImage {
		dir = q.imagesDir
	}
	if err = os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create queue directory: %w", err)
	}

	base := filepath.Base(src)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	stamp := time.Now().Format("2006-01-02T15-04-05")
	suffix := uuid.NewString()[:8]
	dest := filepath.Join(dir, fmt.Sprintf("%s_%s_%s%s", name, stamp, suffix, ext))

	if err = copyFile(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Drain returns a snapshot of all queued files, images first, each directory
// in name order. Files enqueued after the snapshot belong to the next reply.
// An empty queue yields an empty slice.
func (q *Queue) Drain() []Attachment {
	out := []Attachment{}
	for _, name := range listDir(q.imagesDir) {
		out = append(out, Attachment{Path: filepath.Join(q.imagesDir, name), Kind: KindImage})
	}
	for _, name := range listDir(q.documentsDir) {
		kind := KindDocument
		if imageExtensions[strings.ToLower(filepath.Ext(name))] {
			kind = KindImage
		}
		out = append(out, Attachment{Path: filepath.Join(q.documentsDir, name), Kind: kind})
	}
	return out
}

// Remove deletes a sent attachment. Failure is logged, never fatal: a
// leftover file costs at most a duplicate send on the next reply, which
// must not block the reply pipeline.
func (q *Queue) Remove(a Attachment) {
	if err := os.Remove(a.Path); err != nil {
		q.logger.Warn("failed to remove sent attachment", "path", a.Path, "error", err)
	}
}

func listDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to copy to %s: %w", dest, err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}
	return nil
}
