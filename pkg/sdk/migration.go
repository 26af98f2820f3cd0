package sdk

import (
	"errors"
	"fmt"

	"github.com/vitalix-dev/vitalix-bmi/internal/engine"
)

// Migrate copies every record (and its owner's profile, when present) from a
// source store to a destination store. This works for:
// - JSON dir -> SQLite (the engine upgrade)
// - Remote -> Embedded (the backup/offline copy)
func Migrate(src BmiStore, dst BmiStore) error {
	owners, err := src.Owners()
	if err != nil {
		return fmt.Errorf("failed to list owners: %w", err)
	}

	for _, owner := range owners {
		rec, err := src.GetRecord(owner)
		if err != nil {
			return fmt.Errorf("failed to read record for %s: %w", owner, err)
		}
		if err := dst.PutRecord(rec); err != nil {
			return fmt.Errorf("failed to write record for %s: %w", owner, err)
		}

		p, err := src.GetProfile(owner)
		if err != nil {
			// Owners without a registered profile migrate records only.
			if errors.Is(err, ErrProfileNotFound) || errors.Is(err, engine.ErrProfileNotFound) {
				continue
			}
			return fmt.Errorf("failed to read profile for %s: %w", owner, err)
		}
		err = dst.PutProfile(p)
		if err != nil && !errors.Is(err, ErrProfileExists) && !errors.Is(err, engine.ErrProfileExists) {
			return fmt.Errorf("failed to write profile for %s: %w", owner, err)
		}
	}

	return nil
}
