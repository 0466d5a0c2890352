package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"streakd/internal/persistence/interfaces"
	"streakd/internal/providers"
	"streakd/internal/structures"
)

const blobExt = ".blob"

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrInvalidKey   = errors.New("invalid blob key")

	keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// FileBlobStore keeps one compressed file per key in dir.
type FileBlobStore struct {
	dir        string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	closeOnce  sync.Once
}

func NewFileBlobStore(dir string, compressor interfaces.CompressorInterface, logger providers.Logger) (*FileBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create data dir %s: %w", dir, err)
	}
	return &FileBlobStore{
		dir:        dir,
		compressor: compressor,
		logger:     logger,
	}, nil
}

func (f *FileBlobStore) path(key string) string {
	return filepath.Join(f.dir, key+blobExt)
}

func (f *FileBlobStore) Load(key string) ([]byte, error) {
	if !ValidKey(key) {
		return nil, ErrInvalidKey
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", key, err)
	}
	return decompressed, nil
}

// Save writes through a temp file, fsync and rename so a crash never leaves
// a torn blob behind.
func (f *FileBlobStore) Save(key string, data []byte) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	compressed, err := f.compressor.Compress(data)
	if err != nil {
		return err
	}

	fileName := f.path(key)
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(compressed)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileBlobStore) Delete(key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileBlobStore) SetAside(key, suffix string) (string, error) {
	if !ValidKey(key) || !ValidKey(suffix) {
		return "", ErrInvalidKey
	}
	target := f.path(key) + "." + suffix
	if err := os.Rename(f.path(key), target); err != nil {
		if os.IsNotExist(err) {
			return "", ErrBlobNotFound
		}
		return "", err
	}
	return target, nil
}

func (f *FileBlobStore) List() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, blobExt) {
			continue
		}
		key := strings.TrimSuffix(name, blobExt)
		if !ValidKey(key) {
			f.logger.Warnf(providers.TypeStorage, "Skipping unexpected file %s in data dir", name)
			continue
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys, nil
}

// Close releases the compressor. Later calls are no-ops.
func (f *FileBlobStore) Close() {
	f.closeOnce.Do(f.compressor.Close)
}

func NewFileBlobStoreFromConfig(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) (interfaces.BlobStoreInterface, error) {
	return NewFileBlobStore(conf.Persistence.Dir, compressor, logger)
}
