// Package service implements the Vitalix contract surface: BMI evaluation,
// permission-gated persistence, profile registration, and an audit trail.
// Both the HTTP API and the TCP router sit on top of this package.
package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitalix-dev/vitalix-bmi/internal/engine"
	"github.com/vitalix-dev/vitalix-bmi/pkg/bmi"
	"github.com/vitalix-dev/vitalix-bmi/pkg/schema"
	"github.com/vitalix-dev/vitalix-bmi/pkg/sdk"
)

var (
	// ErrPermissionRequired is returned when a caller tries to delete stored
	// data without setting the permit flag.
	ErrPermissionRequired = errors.New("permission required to delete data")
	// ErrMissingOwner is returned when no caller identity was supplied.
	ErrMissingOwner = errors.New("owner identity required")
)

// auditLimit caps the in-memory audit ring.
const auditLimit = 256

// Service binds the evaluator to a record store.
type Service struct {
	eval  *bmi.Evaluator
	store sdk.BmiStore

	mu    sync.Mutex
	audit []schema.AuditLog
}

// New returns a Service over the given store with the default evaluator.
func New(store sdk.BmiStore) *Service {
	return &Service{eval: bmi.New(), store: store}
}

// Evaluator exposes the underlying evaluator so the daemon can adjust the
// advisory threshold.
func (s *Service) Evaluator() *bmi.Evaluator {
	return s.eval
}

// Compute evaluates a submission for the given owner. When the caller
// permits persistence, the resulting record overwrites any previous record
// for the same owner; the record ID and creation time survive overwrites.
func (s *Service) Compute(owner string, in bmi.Input) (bmi.Report, error) {
	if owner == "" {
		return bmi.Report{}, ErrMissingOwner
	}

	rep, err := s.eval.Evaluate(owner, in)
	if err != nil {
		return bmi.Report{}, err
	}

	if rep.Record != nil {
		if prev, err := s.store.GetRecord(owner); err == nil {
			rep.Record.ID = prev.ID
			rep.Record.CreatedAt = prev.CreatedAt
		}
		if err := s.store.PutRecord(*rep.Record); err != nil {
			return bmi.Report{}, fmt.Errorf("failed to store record: %w", err)
		}
		s.logAudit(owner, "compute", fmt.Sprintf("stored BMI %d (%s)", rep.Rounded, rep.Category))
	}

	return rep, nil
}

// SetUser registers a display name for an owner. Each owner registers once.
func (s *Service) SetUser(owner, name string) (schema.Profile, error) {
	if owner == "" {
		return schema.Profile{}, ErrMissingOwner
	}

	p := schema.Profile{
		ID:        uuid.New().String(),
		Owner:     owner,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.PutProfile(p); err != nil {
		return schema.Profile{}, err
	}

	s.logAudit(owner, "set_user", fmt.Sprintf("registered as %q", name))
	return p, nil
}

// GetData returns the formatted summary of an owner's stored record.
func (s *Service) GetData(owner string) (string, error) {
	rec, err := s.store.GetRecord(owner)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BMI Data: %.2f %s", rec.BMI, rec.Owner), nil
}

// DeleteData removes an owner's stored record. The caller must permit the
// deletion explicitly, mirroring the opt-in on the write path.
func (s *Service) DeleteData(owner string, permit bool) error {
	if !permit {
		return ErrPermissionRequired
	}
	if err := s.store.DeleteRecord(owner); err != nil {
		return err
	}

	s.logAudit(owner, "delete_data", "record deleted")
	return nil
}

// Record returns the stored record for an owner.
func (s *Service) Record(owner string) (schema.Record, error) {
	return s.store.GetRecord(owner)
}

// Profile returns the registered profile for an owner.
func (s *Service) Profile(owner string) (schema.Profile, error) {
	return s.store.GetProfile(owner)
}

// Owners lists the identities with stored records.
func (s *Service) Owners() ([]string, error) {
	return s.store.Owners()
}

// RecentAudit returns up to n most recent audit entries, newest last.
func (s *Service) RecentAudit(n int) []schema.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || n > len(s.audit) {
		n = len(s.audit)
	}
	out := make([]schema.AuditLog, n)
	copy(out, s.audit[len(s.audit)-n:])
	return out
}

// IsNotFound reports whether err means an absent record or profile,
// regardless of which store backend produced it.
func IsNotFound(err error) bool {
	return errors.Is(err, engine.ErrRecordNotFound) ||
		errors.Is(err, engine.ErrProfileNotFound) ||
		errors.Is(err, sdk.ErrRecordNotFound) ||
		errors.Is(err, sdk.ErrProfileNotFound)
}

// IsConflict reports whether err means a profile already exists.
func IsConflict(err error) bool {
	return errors.Is(err, engine.ErrProfileExists) || errors.Is(err, sdk.ErrProfileExists)
}

func (s *Service) logAudit(actor, action, details string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, schema.AuditLog{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		Action:    action,
		Details:   details,
	})
	if len(s.audit) > auditLimit {
		s.audit = s.audit[len(s.audit)-auditLimit:]
	}
}
