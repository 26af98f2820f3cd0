package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vitalix-dev/vitalix-bmi/internal/vault"
	"github.com/vitalix-dev/vitalix-bmi/pkg/schema"
)

// OwnerSnapshot is the on-disk unit: everything stored for one owner.
type OwnerSnapshot struct {
	Record  *schema.Record  `json:"record,omitempty"`
	Profile *schema.Profile `json:"profile,omitempty"`
}

// Persistence handles the disk I/O for the MemStore.
// When a 32-byte master key is supplied, snapshots are sealed with AES-GCM
// and written as .sealed files instead of plain .json.
type Persistence struct {
	DataDir   string
	masterKey []byte
	mu        sync.Mutex // Protects concurrent writes to the filesystem
}

// NewPersistence initializes a persistence handler.
// key may be nil for plaintext snapshots, or a 32-byte AES-256 key.
func NewPersistence(dir string, key []byte) (*Persistence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if key != nil && len(key) != 32 {
		return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(key))
	}
	return &Persistence{DataDir: dir, masterKey: key}, nil
}

// SaveOwner writes a single owner's snapshot to disk atomically.
// An empty snapshot (record and profile both gone) removes the file.
func (p *Persistence) SaveOwner(owner string, snap OwnerSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	filePath := p.ownerPath(owner)

	if snap.Record == nil && snap.Profile == nil {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	bytes, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	if p.masterKey != nil {
		sealed, err := vault.Seal(bytes, p.masterKey)
		if err != nil {
			return err
		}
		bytes = []byte(sealed)
	}

	// Write to a temporary file, then rename. If the power fails we have
	// either the old file or the new one, never a corrupt one.
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, filePath)
}

// LoadAll returns all owner snapshots found in the data directory.
func (p *Persistence) LoadAll() (map[string]OwnerSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	all := make(map[string]OwnerSnapshot)

	files, err := os.ReadDir(p.DataDir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		ext := filepath.Ext(file.Name())
		if ext != ".json" && ext != ".sealed" {
			continue
		}
		owner, err := url.PathUnescape(strings.TrimSuffix(file.Name(), ext))
		if err != nil {
			log.Printf("Warning: Skipping snapshot with malformed name %s: %v", file.Name(), err)
			continue
		}

		content, err := os.ReadFile(filepath.Join(p.DataDir, file.Name()))
		if err != nil {
			log.Printf("Warning: Could not read snapshot %s: %v", file.Name(), err)
			continue // Skip corrupted/unreadable files
		}

		if ext == ".sealed" {
			if p.masterKey == nil {
				log.Printf("Warning: %s is sealed but no master key is configured", file.Name())
				continue
			}
			opened, err := vault.Open(string(content), p.masterKey)
			if err != nil {
				log.Printf("Warning: Could not unseal %s: %v", file.Name(), err)
				continue
			}
			content = opened
		}

		var snap OwnerSnapshot
		if err := json.Unmarshal(content, &snap); err != nil {
			log.Printf("Warning: Could not unmarshal snapshot %s: %v", file.Name(), err)
			continue
		}
		all[owner] = snap
	}
	return all, nil
}

// ownerPath maps an owner identity to a snapshot file inside DataDir.
// Owners arrive over the network, so the name is escaped to keep path
// separators (and anything else hostile) out of the filename.
func (p *Persistence) ownerPath(owner string) string {
	ext := ".json"
	if p.masterKey != nil {
		ext = ".sealed"
	}
	return filepath.Join(p.DataDir, url.PathEscape(owner)+ext)
}
