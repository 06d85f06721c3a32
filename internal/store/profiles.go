package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ProfileStore persists the optional per-user profile record.
type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, first_name, last_name, phone, updated_at
		FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates or replaces the user's profile.
func (s *ProfileStore) UpsertProfile(ctx context.Context, p Profile) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, phone, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.FirstName, p.LastName, p.Phone, p.UpdatedAt)
	return err
}
