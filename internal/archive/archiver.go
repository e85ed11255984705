package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"

	"github.com/curadesk/support-platform/internal/config"
	"github.com/curadesk/support-platform/pkg/util/errorutil"
)

// Info summarizes a validated bundle.
type Info struct {
	EntryCount       int
	UncompressedSize int64
}

// Archiver validates user-supplied zip bundles and stores the original bytes
// under a per-ticket directory. Nothing is written to disk before the bundle
// passes every check, so a rejected upload leaves no residue.
type Archiver struct {
	root       string
	maxBytes   int64
	maxEntries int
	maxRatio   float64
}

// NewArchiver constructs the archiver from config.
func NewArchiver(cfg config.ArchiveConfig) *Archiver {
	return &Archiver{
		root:       cfg.Root,
		maxBytes:   cfg.MaxUncompressedBytes,
		maxEntries: cfg.MaxEntries,
		maxRatio:   cfg.MaxCompressionRatio,
	}
}

// Inspect validates the raw bundle bytes: archive shape, entry count,
// declared and actual uncompressed sizes, path traversal, and the
// compressed-to-uncompressed ratio. Every failure maps to PayloadRejected
// except an unparseable archive, which is Malformed.
func (a *Archiver) Inspect(data []byte) (Info, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Info{}, errorutil.NewMalformed("not a valid zip archive", nil)
	}

	if a.maxEntries > 0 && len(reader.File) > a.maxEntries {
		return Info{}, errorutil.NewPayloadRejected("too many archive entries", map[string]any{
			"entries": len(reader.File),
			"limit":   a.maxEntries,
		})
	}

	var declared int64
	for _, file := range reader.File {
		if !entryPathSafe(file.Name) {
			return Info{}, errorutil.NewPayloadRejected("entry path escapes archive root", map[string]any{
				"entry": file.Name,
			})
		}
		declared += int64(file.UncompressedSize64)
	}
	if a.maxBytes > 0 && declared > a.maxBytes {
		return Info{}, errorutil.NewPayloadRejected("declared uncompressed size exceeds limit", map[string]any{
			"declared": declared,
			"limit":    a.maxBytes,
		})
	}

	// Headers can lie; decompress with a hard cap to measure reality.
	actual, err := a.measure(reader)
	if err != nil {
		return Info{}, err
	}

	if len(data) > 0 && a.maxRatio > 0 {
		ratio := float64(actual) / float64(len(data))
		if ratio > a.maxRatio {
			return Info{}, errorutil.NewPayloadRejected("compression ratio exceeds limit", map[string]any{
				"ratio": ratio,
				"limit": a.maxRatio,
			})
		}
	}

	return Info{EntryCount: len(reader.File), UncompressedSize: actual}, nil
}

func (a *Archiver) measure(reader *zip.Reader) (int64, error) {
	var total int64
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return 0, errorutil.NewMalformed("unreadable archive entry", map[string]any{"entry": file.Name})
		}

		// +1 so a stream running past the ceiling is detected rather than
		// silently truncated.
		var src io.Reader = rc
		if a.maxBytes > 0 {
			src = io.LimitReader(rc, a.maxBytes-total+1)
		}
		n, err := io.Copy(io.Discard, src)
		rc.Close() //nolint:errcheck
		if err != nil {
			return 0, errorutil.NewMalformed("corrupt archive entry", map[string]any{"entry": file.Name})
		}

		total += n
		if a.maxBytes > 0 && total > a.maxBytes {
			return 0, errorutil.NewPayloadRejected("uncompressed size exceeds limit", map[string]any{
				"limit": a.maxBytes,
			})
		}
	}
	return total, nil
}

// entryPathSafe rejects absolute paths and any path escaping the extraction
// root. Zip names use forward slashes regardless of platform.
func entryPathSafe(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return false
	}
	cleaned := path.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

// Store persists the original bundle bytes for a ticket and returns the
// storage key. The write goes through a temp file and rename so a crash
// mid-write cannot leave a partial bundle under the final key.
func (a *Archiver) Store(ticketID int64, data []byte) (string, error) {
	dir := filepath.Join(a.root, fmt.Sprintf("%d", ticketID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	storageKey := filepath.Join(fmt.Sprintf("%d", ticketID), uuid.NewString()+".zip")
	finalPath := filepath.Join(a.root, storageKey)

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpName) //nolint:errcheck
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", err
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", err
	}
	return storageKey, nil
}

// Open returns a reader over the stored original bytes. Retrieval never
// re-compresses or rewrites; the caller streams the file as-is.
func (a *Archiver) Open(storageKey string) (*os.File, error) {
	if !filepath.IsLocal(storageKey) {
		return nil, errorutil.NewNotFound("attachment bundle")
	}
	file, err := os.Open(filepath.Join(a.root, storageKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorutil.NewNotFound("attachment bundle")
		}
		return nil, err
	}
	return file, nil
}

// Remove deletes a stored bundle. Used to roll back when metadata persistence
// fails after the bytes were written.
func (a *Archiver) Remove(storageKey string) error {
	if !filepath.IsLocal(storageKey) {
		return nil
	}
	return os.Remove(filepath.Join(a.root, storageKey))
}
