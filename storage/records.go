package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ProviderRecord is the persisted state for one tool provider: credential
// values, configuration values, and whether the user activated it. The
// orchestration core reads and writes it as a unit and inspects nothing
// beyond these three fields.
type ProviderRecord struct {
	Credentials map[string]string `json:"credentials,omitempty"`
	Config      map[string]string `json:"config,omitempty"`
	IsActive    bool              `json:"is_active,omitempty"`
}

// RecordStore persists provider records as JSON blobs keyed by provider ID.
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a record store over an open database.
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// Load returns the record for a provider. A missing record is not an
// error: callers get an empty record, matching "nothing configured yet".
func (s *RecordStore) Load(id string) (*ProviderRecord, error) {
	var blob string
	err := s.db.conn.QueryRow(
		`SELECT record FROM provider_records WHERE id = ?`, id,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return &ProviderRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record for %s: %w", id, err)
	}

	var rec ProviderRecord
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		return nil, fmt.Errorf("malformed record for %s: %w", id, err)
	}

	return &rec, nil
}

// Save upserts the record for a provider.
func (s *RecordStore) Save(id string, rec *ProviderRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", id, err)
	}

	_, err = s.db.conn.Exec(
		`INSERT INTO provider_records (id, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		id, string(blob), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record for %s: %w", id, err)
	}

	return nil
}

// Delete removes the record for a provider. Deleting a missing record is a no-op.
func (s *RecordStore) Delete(id string) error {
	_, err := s.db.conn.Exec(`DELETE FROM provider_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record for %s: %w", id, err)
	}
	return nil
}

// List returns the IDs of all providers with a persisted record.
func (s *RecordStore) List() ([]string, error) {
	rows, err := s.db.conn.Query(`SELECT id FROM provider_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan record id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
