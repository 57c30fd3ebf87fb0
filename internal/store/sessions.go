package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rapport-labs/rapport/internal/catalog"
	"github.com/rapport-labs/rapport/internal/session"
)

// Sessions are stored as one row each; composite fields (collected
// data, histories) are serialized JSON text decoded only at this
// boundary. One request cycle loads, mutates and saves the whole row
// once, so there is no field-level locking.

func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	collected, history, qaHistory, completed, err := encodeComposites(sess)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (
			id, user_id, contact_id, contact_name, perspective,
			current_dimension, completed_dimensions, collected_data,
			conversation_history, qa_history, status, last_question,
			final_description, created_at, updated_at, completed_at, qa_ended_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		sess.ID, sess.UserID, sess.ContactID, sess.ContactName, string(sess.Perspective),
		sess.CurrentDimension, completed, collected,
		history, qaHistory, string(sess.Status), sess.LastQuestion,
		sess.FinalDescription, sess.CreatedAt, sess.UpdatedAt, sess.CompletedAt, sess.QAEndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SaveSession writes the whole session row back. Sessions are never
// deleted; abandon is a status transition.
func (s *Store) SaveSession(ctx context.Context, sess *session.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	collected, history, qaHistory, completed, err := encodeComposites(sess)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET
			contact_id = $2, contact_name = $3, current_dimension = $4,
			completed_dimensions = $5, collected_data = $6,
			conversation_history = $7, qa_history = $8, status = $9,
			last_question = $10, final_description = $11, updated_at = $12,
			completed_at = $13, qa_ended_at = $14
		WHERE id = $1`,
		sess.ID, sess.ContactID, sess.ContactName, sess.CurrentDimension,
		completed, collected, history, qaHistory, string(sess.Status),
		sess.LastQuestion, sess.FinalDescription, sess.UpdatedAt,
		sess.CompletedAt, sess.QAEndedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, contact_id, contact_name, perspective,
			current_dimension, completed_dimensions, collected_data,
			conversation_history, qa_history, status, last_question,
			final_description, created_at, updated_at, completed_at, qa_ended_at
		FROM sessions WHERE id = $1`, id)

	var (
		sess        session.Session
		perspective string
		status      string
		completed   string
		collected   string
		history     string
		qaHistory   string
	)
	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.ContactID, &sess.ContactName, &perspective,
		&sess.CurrentDimension, &completed, &collected,
		&history, &qaHistory, &status, &sess.LastQuestion,
		&sess.FinalDescription, &sess.CreatedAt, &sess.UpdatedAt, &sess.CompletedAt, &sess.QAEndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	sess.Perspective = catalog.Perspective(perspective)
	sess.Status = session.Status(status)
	if err := decodeComposites(&sess, completed, collected, history, qaHistory); err != nil {
		return nil, err
	}
	return &sess, nil
}

func encodeComposites(sess *session.Session) (collected, history, qaHistory, completed string, err error) {
	b, err := json.Marshal(sess.CollectedData)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshal collected data: %w", err)
	}
	collected = string(b)

	b, err = json.Marshal(sess.History)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshal history: %w", err)
	}
	history = string(b)

	b, err = json.Marshal(sess.QAHistory)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshal qa history: %w", err)
	}
	qaHistory = string(b)

	b, err = json.Marshal(sess.CompletedDimensions)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshal completed dimensions: %w", err)
	}
	completed = string(b)
	return collected, history, qaHistory, completed, nil
}

func decodeComposites(sess *session.Session, completed, collected, history, qaHistory string) error {
	if err := json.Unmarshal([]byte(completed), &sess.CompletedDimensions); err != nil {
		return fmt.Errorf("unmarshal completed dimensions: %w", err)
	}
	if err := json.Unmarshal([]byte(collected), &sess.CollectedData); err != nil {
		return fmt.Errorf("unmarshal collected data: %w", err)
	}
	if sess.CollectedData == nil {
		sess.CollectedData = make(map[string]string)
	}
	if err := json.Unmarshal([]byte(history), &sess.History); err != nil {
		return fmt.Errorf("unmarshal history: %w", err)
	}
	if err := json.Unmarshal([]byte(qaHistory), &sess.QAHistory); err != nil {
		return fmt.Errorf("unmarshal qa history: %w", err)
	}
	return nil
}
