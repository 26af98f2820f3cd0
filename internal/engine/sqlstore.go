package engine

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vitalix-dev/vitalix-bmi/pkg/schema"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
    owner       TEXT PRIMARY KEY,
    id          TEXT NOT NULL,
    weight      REAL NOT NULL,
    height      REAL NOT NULL,
    bmi         REAL NOT NULL,
    category    TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`

const profilesSchema = `
CREATE TABLE IF NOT EXISTS profiles (
    owner       TEXT PRIMARY KEY,
    id          TEXT NOT NULL,
    name        TEXT NOT NULL,
    created_at  TEXT NOT NULL
);
`

// SQLStore persists records and profiles in SQLite.
// It implements the same contract as MemStore; overwrites use upserts so
// last-write-wins semantics match the in-memory engine.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (or creates) the SQLite database at path and ensures
// the schema exists.
func OpenSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(recordsSchema); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(profilesSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) GetRecord(owner string) (schema.Record, error) {
	row := s.db.QueryRow(`
		SELECT id, owner, weight, height, bmi, category, created_at, updated_at
		FROM records WHERE owner = ?`, owner)

	var rec schema.Record
	var created, updated string
	err := row.Scan(&rec.ID, &rec.Owner, &rec.Weight, &rec.Height, &rec.BMI,
		&rec.Category, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Record{}, ErrRecordNotFound
	}
	if err != nil {
		return schema.Record{}, err
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return rec, nil
}

func (s *SQLStore) PutRecord(rec schema.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO records (owner, id, weight, height, bmi, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			id = excluded.id,
			weight = excluded.weight,
			height = excluded.height,
			bmi = excluded.bmi,
			category = excluded.category,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		rec.Owner, rec.ID, rec.Weight, rec.Height, rec.BMI, rec.Category,
		rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *SQLStore) DeleteRecord(owner string) error {
	res, err := s.db.Exec(`DELETE FROM records WHERE owner = ?`, owner)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *SQLStore) PutProfile(p schema.Profile) error {
	var existing string
	err := s.db.QueryRow(`SELECT owner FROM profiles WHERE owner = ?`, p.Owner).Scan(&existing)
	if err == nil {
		return ErrProfileExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO profiles (owner, id, name, created_at)
		VALUES (?, ?, ?, ?)`,
		p.Owner, p.ID, p.Name, p.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *SQLStore) GetProfile(owner string) (schema.Profile, error) {
	row := s.db.QueryRow(`SELECT id, owner, name, created_at FROM profiles WHERE owner = ?`, owner)

	var p schema.Profile
	var created string
	err := row.Scan(&p.ID, &p.Owner, &p.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return schema.Profile{}, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return p, nil
}

func (s *SQLStore) Owners() ([]string, error) {
	rows, err := s.db.Query(`SELECT owner FROM records ORDER BY owner`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		list = append(list, owner)
	}
	return list, rows.Err()
}
