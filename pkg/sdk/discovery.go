package sdk

import (
	"os"

	"github.com/vitalix-dev/vitalix-bmi/internal/engine"
)

// New initializes a store based on the environment.
// It returns the interface, so the app doesn't care if it's local or remote.
func New(dataDir string) (BmiStore, error) {
	// 1. Check if a remote daemon is defined in the environment
	remoteAddr := os.Getenv("VITALIX_STORE_ADDR")

	if remoteAddr != "" {
		client, err := Connect(remoteAddr)
		if err == nil {
			return client, nil
		}
		// Connection failed; fall through to embedded mode
	}

	// 2. Fallback to Embedded Mode.
	// This uses the same engine the daemon uses, but inside the app process.
	p, err := engine.NewPersistence(dataDir, nil)
	if err != nil {
		return nil, err
	}

	snapshots, err := p.LoadAll()
	if err != nil {
		return nil, err
	}

	return engine.NewMemStore(snapshots, p), nil
}
