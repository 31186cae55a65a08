package session

import (
	"encoding/json"
	"os"
	"sync"
)

// tokenKey is the well-known storage key the bearer token lives under.
// Session restoration across restarts depends on this exact key.
const tokenKey = "token"

// TokenStore persists the bearer token across client restarts.
// Exactly one token is stored at a time: Save overwrites any prior token
// and Clear removes it.
type TokenStore interface {
	// Save overwrites the stored token. No validation is performed.
	Save(token string) error
	// Load returns the stored token, or ok=false if none is stored.
	// A token that cannot be read is reported as absent.
	Load() (token string, ok bool)
	// Clear deletes the stored token. Clearing an absent token is not
	// an error.
	Clear() error
}

// FileStore is a TokenStore backed by a JSON key-value file on disk.
// All operations are synchronous; no network calls.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a FileStore persisting to the given file path.
// The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// read loads the key-value map from disk. A missing file is an empty map.
func (fs *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (fs *FileStore) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return os.WriteFile(fs.path, data, 0o600)
}

// Save overwrites the stored token.
func (fs *FileStore) Save(token string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.read()
	if err != nil {
		values = map[string]string{}
	}
	values[tokenKey] = token
	return fs.write(values)
}

// Load returns the stored token, or ok=false if none is stored or the
// file is unreadable.
func (fs *FileStore) Load() (string, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.read()
	if err != nil {
		return "", false
	}
	token, ok := values[tokenKey]
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Clear deletes the stored token. Idempotent.
func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.read()
	if err != nil {
		// An unreadable file holds no usable token; reset it.
		values = map[string]string{}
	}
	if _, ok := values[tokenKey]; !ok && err == nil {
		return nil
	}
	delete(values, tokenKey)
	return fs.write(values)
}
