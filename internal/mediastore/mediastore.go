package mediastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MaxUploadSize is the hard cap for a single uploaded image.
const MaxUploadSize = 5 << 20 // 5 MiB

var (
	ErrInvalidType = errors.New("unsupported image type")
	ErrTooLarge    = fmt.Errorf("image exceeds %d bytes", MaxUploadSize)
)

var allowedExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Upload carries the raw bytes of an incoming file together with the
// metadata the client declared for it.
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// MediaStore persists uploaded images on local disk under generated
// unique filenames. File operations happen outside any database
// transaction; the row referencing a file and the file itself can
// diverge on partial failure (see the orphan sweep in internal/app).
type MediaStore struct {
	dir  string
	node *snowflake.Node
}

func New(dir string) (*MediaStore, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, errors.Wrap(err, "mediastore: init id generator")
	}
	return &MediaStore{dir: dir, node: node}, nil
}

// Dir returns the storage directory path.
func (m *MediaStore) Dir() string {
	return m.dir
}

// Store validates and writes an uploaded image, returning the generated
// filename relative to the store directory. Both the file extension and
// the declared content type must be on the image allow-list.
func (m *MediaStore) Store(up Upload) (string, error) {
	if len(up.Data) > MaxUploadSize {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !allowedExts[ext] {
		return "", ErrInvalidType
	}
	ctype := strings.ToLower(strings.TrimSpace(up.ContentType))
	if i := strings.Index(ctype, ";"); i >= 0 {
		ctype = strings.TrimSpace(ctype[:i])
	}
	if !allowedTypes[ctype] {
		return "", ErrInvalidType
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "mediastore: create upload dir")
	}

	// snowflake ids are time-ordered and unique per node, so two uploads
	// in the same millisecond still get distinct names
	name := m.node.Generate().String() + ext
	if err := os.WriteFile(filepath.Join(m.dir, name), up.Data, 0o644); err != nil {
		return "", errors.Wrap(err, "mediastore: write file")
	}
	return name, nil
}

// Delete removes a previously stored file. A file that is already gone
// is not an error.
func (m *MediaStore) Delete(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(m.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "mediastore: delete file")
	}
	return nil
}

// Path returns the on-disk path for a stored filename. The name is
// reduced to its base component so a stored value can never escape the
// upload directory.
func (m *MediaStore) Path(name string) string {
	return filepath.Join(m.dir, filepath.Base(name))
}

// Exists reports whether a stored file is present on disk.
func (m *MediaStore) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// Sweep removes files in the store directory that are not in the
// referenced set and are older than the grace period. It returns the
// number of files removed. Files newer than the grace period are kept
// so an in-flight upload is never swept between the file write and the
// row insert.
func (m *MediaStore) Sweep(referenced map[string]bool, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "mediastore: read upload dir")
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil {
			zap.L().Warn("mediastore: failed to remove orphan file",
				zap.String("name", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
