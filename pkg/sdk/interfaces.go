package sdk

import (
	"errors"

	"github.com/vitalix-dev/vitalix-bmi/pkg/schema"
)

var (
	// ErrRecordNotFound is returned when no BMI record exists for an owner.
	ErrRecordNotFound = errors.New("no data found")
	// ErrProfileNotFound is returned when an owner has no registered profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrProfileExists is returned when an owner tries to register twice.
	ErrProfileExists = errors.New("profile already exists")
)

// --- Functional Interfaces (Interface Segregation) ---

// RecordReader defines the read operations for BMI records.
type RecordReader interface {
	GetRecord(owner string) (schema.Record, error)
}

// RecordWriter defines the write and delete operations for BMI records.
type RecordWriter interface {
	PutRecord(rec schema.Record) error
	DeleteRecord(owner string) error
}

// ProfileRegistry manages owner display-name registration.
type ProfileRegistry interface {
	PutProfile(p schema.Profile) error
	GetProfile(owner string) (schema.Profile, error)
}

// OwnerEnumeration allows discovering which owners have stored records.
type OwnerEnumeration interface {
	Owners() ([]string, error)
}

// --- Composite Interface ---

// BmiStore is the primary interface for interacting with the record store.
// Both the local embedded engine and the remote network client implement
// this contract.
type BmiStore interface {
	RecordReader
	RecordWriter
	ProfileRegistry
	OwnerEnumeration
}
