package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Profile entity kinds. A contact profile belongs to the user who
// collected it; a user profile is the user's own.
const (
	KindContact = "contact"
	KindUser    = "user"
)

// Profile is the persisted entity a finished collection produces.
type Profile struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Description string
	SelfValue   string
	Summary     string
}

func tableFor(kind string) (table, idCol string, err error) {
	switch kind {
	case KindContact:
		return "contacts", "id", nil
	case KindUser:
		return "user_profiles", "user_id", nil
	default:
		return "", "", fmt.Errorf("unknown profile kind %q", kind)
	}
}

// CreateContact inserts a new contact owned by userID and returns its id.
func (s *Store) CreateContact(ctx context.Context, userID uuid.UUID, name, description, selfValue string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contacts (id, owner_id, name, description, self_value, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', now(), now())`,
		id, userID, name, description, selfValue,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert contact: %w", err)
	}
	return id, nil
}

// EnsureUserProfile makes the user's own profile row exist.
func (s *Store) EnsureUserProfile(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, description, self_value, summary, created_at, updated_at)
		VALUES ($1, '', '', '', now(), now())
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("ensure user profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, kind string, id uuid.UUID) (*Profile, error) {
	table, idCol, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	var p Profile
	var query string
	if kind == KindContact {
		query = fmt.Sprintf(`SELECT id, owner_id, name, description, self_value, summary FROM %s WHERE %s = $1`, table, idCol)
		err = s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.SelfValue, &p.Summary)
	} else {
		query = fmt.Sprintf(`SELECT user_id, user_id, description, self_value, summary FROM %s WHERE %s = $1`, table, idCol)
		err = s.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.OwnerID, &p.Description, &p.SelfValue, &p.Summary)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s profile: %w", kind, err)
	}
	return &p, nil
}

func (s *Store) UpdateProfileDescription(ctx context.Context, kind string, id uuid.UUID, description string) error {
	return s.updateProfileField(ctx, kind, id, "description", description)
}

func (s *Store) UpdateProfileSelfValue(ctx context.Context, kind string, id uuid.UUID, selfValue string) error {
	return s.updateProfileField(ctx, kind, id, "self_value", selfValue)
}

func (s *Store) UpdateProfileSummary(ctx context.Context, kind string, id uuid.UUID, summary string) error {
	return s.updateProfileField(ctx, kind, id, "summary", summary)
}

func (s *Store) updateProfileField(ctx context.Context, kind string, id uuid.UUID, column, value string) error {
	table, idCol, err := tableFor(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET %s = $1, updated_at = $2 WHERE %s = $3`, table, column, idCol)
	tag, err := s.pool.Exec(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
