// Package settings stores ddtr user settings outside of any project,
// currently the Baidu Fanyi API credentials.
//
// All settings are stored in the XDG data directory:
//
//	$XDG_DATA_HOME/ddtr/  (default: ~/.local/share/ddtr/)
//
// auth.json is a JSON object keyed by service ID:
//
//	{"baidu": {"appId": "2015063000000001", "key": "12345678"}}
//
// File permissions are 0600 (owner read/write only).
//
// Lookup order for credentials:
//  1. apiId/apiKey in the project config
//  2. DDTR_API_ID / DDTR_API_KEY environment variables
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "ddtr"
	fileName    = "auth.json"

	// Baidu is the service ID of the Baidu Fanyi credentials.
	Baidu = "baidu"
)

// Info holds the credentials of one service.
type Info struct {
	AppID string `json:"appId"`
	Key   string `json:"key"`
}

// Complete reports whether both halves of the credentials are present.
func (i *Info) Complete() bool {
	return i != nil && i.AppID != "" && i.Key != ""
}

// Store holds all credentials, keyed by service ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for ddtr.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// DataDir returns the ddtr data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the entry for a service, or nil if not found.
func Get(service string) *Info {
	return Load()[service]
}

// Set stores credentials for a service (upsert).
func Set(service string, info *Info) error {
	store := Load()
	store[service] = info
	return Save(store)
}

// Remove deletes credentials for a service.
func Remove(service string) error {
	store := Load()
	if _, ok := store[service]; !ok {
		return nil
	}
	delete(store, service)
	return Save(store)
}

// RemoveAll removes all stored credentials.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// Resolve returns id and key unchanged when both are set, otherwise the
// stored Baidu credentials. ok is false when neither source is complete.
func Resolve(id, key string) (string, string, bool) {
	if id != "" && key != "" {
		return id, key, true
	}
	if info := Get(Baidu); info.Complete() {
		return info.AppID, info.Key, true
	}
	return id, key, false
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
