package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AddressStore persists shipping addresses. Every query is scoped to the
// owning user; a user can never read or write another user's rows.
type AddressStore struct {
	db *sql.DB
}

func NewAddressStore(db *sql.DB) *AddressStore {
	return &AddressStore{db: db}
}

// ListAddresses returns the user's addresses, default first, then newest
// first.
func (s *AddressStore) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, street, city, postal_code, country, is_default, created_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (s *AddressStore) GetAddress(ctx context.Context, id, userID string) (*Address, error) {
	var a Address
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, street, city, postal_code, country, is_default, created_at
		FROM addresses
		WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&a.ID, &a.UserID, &a.Street, &a.City, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressStore) CreateAddress(ctx context.Context, a Address) (*Address, error) {
	a.ID = uuid.New().String()
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, street, city, postal_code, country, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.Street, a.City, a.PostalCode, a.Country, a.IsDefault, a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAddress rewrites the four address fields and the default flag of
// one record the user owns.
func (s *AddressStore) UpdateAddress(ctx context.Context, a Address) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE addresses
		SET street = $3, city = $4, postal_code = $5, country = $6, is_default = $7
		WHERE id = $1 AND user_id = $2`,
		a.ID, a.UserID, a.Street, a.City, a.PostalCode, a.Country, a.IsDefault)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AddressStore) DeleteAddress(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
