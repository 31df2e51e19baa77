package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
)

// JSONFile is a durable cloudsync.Storage backed by one JSON file per tag
// under a root directory, rewritten whole on every mutation via a
// temp-file-plus-rename swap. Grounded on mutagen's
// pkg/filesystem.WriteFileAtomic pattern, simplified here to the
// create-temp/close/rename sequence since this package has no need for
// mutagen's cross-platform directory-fsync variant.
type JSONFile struct {
	mu   sync.Mutex
	root string
}

// NewJSONFile returns a JSONFile store rooted at dir, creating dir if it
// does not exist.
func NewJSONFile(dir string) (*JSONFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create storage directory")
	}
	return &JSONFile{root: dir}, nil
}

func (f *JSONFile) pathFor(tag string) string {
	return filepath.Join(f.root, tag+".json")
}

func (f *JSONFile) load(tag string) (map[string]string, error) {
	data, err := os.ReadFile(f.pathFor(tag))
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read storage file")
	}
	out := make(map[string]string)
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decode storage file")
	}
	return out, nil
}

func (f *JSONFile) save(tag string, blobs map[string]string) error {
	data, err := json.Marshal(blobs)
	if err != nil {
		return errors.Wrap(err, "encode storage file")
	}
	return writeFileAtomic(f.pathFor(tag), data, 0o644)
}

// writeFileAtomic writes data to path via a same-directory temp file
// swapped into place with os.Rename, so a crash mid-write never leaves a
// half-written storage file behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cloudsync-storage-*")
	if err != nil {
		return errors.Wrap(err, "create temporary storage file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temporary storage file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temporary storage file")
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "set storage file permissions")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename temporary storage file into place")
	}
	return nil
}

// Create implements cloudsync.Storage.
func (f *JSONFile) Create(tag string, blob []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blobs, err := f.load(tag)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	blobs[id] = string(blob)
	if err := f.save(tag, blobs); err != nil {
		return "", err
	}
	return id, nil
}

// Update implements cloudsync.Storage.
func (f *JSONFile) Update(tag string, blob []byte, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	blobs, err := f.load(tag)
	if err != nil {
		return err
	}
	if _, ok := blobs[id]; !ok {
		return cloudsync.ErrNotFound
	}
	blobs[id] = string(blob)
	return f.save(tag, blobs)
}

// Delete implements cloudsync.Storage.
func (f *JSONFile) Delete(tag string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	blobs, err := f.load(tag)
	if err != nil {
		return err
	}
	if _, ok := blobs[id]; !ok {
		return cloudsync.ErrNotFound
	}
	delete(blobs, id)
	return f.save(tag, blobs)
}

// ReadAll implements cloudsync.Storage.
func (f *JSONFile) ReadAll(tag string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blobs, err := f.load(tag)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(blobs))
	for id, blob := range blobs {
		out[id] = []byte(blob)
	}
	return out, nil
}
