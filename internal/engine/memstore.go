package engine

import (
	"sync"

	"github.com/vitalix-dev/vitalix-bmi/pkg/schema"
)

// MemStore is the thread-safe in-memory engine.
// Records and profiles are keyed by owner identity; writes overwrite the
// previous record for the same owner (last-write-wins).
type MemStore struct {
	mu        sync.RWMutex
	records   map[string]schema.Record
	profiles  map[string]schema.Profile
	persister *Persistence
	wg        sync.WaitGroup
}

// NewMemStore initializes a store.
// It accepts existing data (from LoadAll) and a persister.
func NewMemStore(initial map[string]OwnerSnapshot, p *Persistence) *MemStore {
	m := &MemStore{
		records:   make(map[string]schema.Record),
		profiles:  make(map[string]schema.Profile),
		persister: p,
	}
	for owner, snap := range initial {
		if snap.Record != nil {
			m.records[owner] = *snap.Record
		}
		if snap.Profile != nil {
			m.profiles[owner] = *snap.Profile
		}
	}
	return m
}

// Wait waits for all background persistence tasks to complete.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

// --- Interface Implementation ---

func (m *MemStore) GetRecord(owner string) (schema.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[owner]
	if !ok {
		return schema.Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (m *MemStore) PutRecord(rec schema.Record) error {
	m.mu.Lock()
	m.records[rec.Owner] = rec
	snap := m.snapshotOwner(rec.Owner)
	m.mu.Unlock()

	m.persistOwner(rec.Owner, snap)
	return nil
}

func (m *MemStore) DeleteRecord(owner string) error {
	m.mu.Lock()
	if _, ok := m.records[owner]; !ok {
		m.mu.Unlock()
		return ErrRecordNotFound
	}
	delete(m.records, owner)
	snap := m.snapshotOwner(owner)
	m.mu.Unlock()

	m.persistOwner(owner, snap)
	return nil
}

func (m *MemStore) PutProfile(p schema.Profile) error {
	m.mu.Lock()
	if _, ok := m.profiles[p.Owner]; ok {
		m.mu.Unlock()
		return ErrProfileExists
	}
	m.profiles[p.Owner] = p
	snap := m.snapshotOwner(p.Owner)
	m.mu.Unlock()

	m.persistOwner(p.Owner, snap)
	return nil
}

func (m *MemStore) GetProfile(owner string) (schema.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[owner]
	if !ok {
		return schema.Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func (m *MemStore) Owners() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []string
	for owner := range m.records {
		list = append(list, owner)
	}
	return list, nil
}

// snapshotOwner copies an owner's state for a safe background save.
// It MUST be called while holding m.mu.
func (m *MemStore) snapshotOwner(owner string) OwnerSnapshot {
	var snap OwnerSnapshot
	if rec, ok := m.records[owner]; ok {
		r := rec
		snap.Record = &r
	}
	if p, ok := m.profiles[owner]; ok {
		pc := p
		snap.Profile = &pc
	}
	return snap
}

// persistOwner saves an owner snapshot in the background.
func (m *MemStore) persistOwner(owner string, snap OwnerSnapshot) {
	if m.persister == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.persister.SaveOwner(owner, snap)
	}()
}
