package store

import (
	"context"
	"time"

	"menu-import-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Session rows live outside the restaurant transaction: a failed import
// must still leave its audit record behind.

// CreateSession inserts a session row in RUNNING state.
func (s *Store) CreateSession(ctx context.Context, sess *models.ImportSession) error {
	query := `
		INSERT INTO import_sessions (id, restaurant_id, platform, url, started_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.RestaurantID, sess.Platform, sess.URL, sess.StartedAt, sess.Status)
	return err
}

// SetSessionRestaurant links the session to the resolved restaurant.
func (s *Store) SetSessionRestaurant(ctx context.Context, sessionID, restaurantID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE import_sessions SET restaurant_id = $1 WHERE id = $2",
		restaurantID, sessionID)
	return err
}

// FinishSession records the terminal status, counts and structured
// error list for one import attempt.
func (s *Store) FinishSession(ctx context.Context, sessionID uuid.UUID, status string,
	productCount, categoryCount, errorCount int, errs types.JSONText, completedAt time.Time) error {

	_, err := s.db.ExecContext(ctx, `
		UPDATE import_sessions
		SET status = $1, product_count = $2, category_count = $3,
		    error_count = $4, errors = $5, completed_at = $6
		WHERE id = $7`,
		status, productCount, categoryCount,
		errorCount, errs, completedAt, sessionID)
	return err
}

// SessionByID retrieves one session record.
func (s *Store) SessionByID(ctx context.Context, id uuid.UUID) (*models.ImportSession, error) {
	var sess models.ImportSession
	err := s.db.GetContext(ctx, &sess, "SELECT * FROM import_sessions WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// RecentSessions lists the latest import attempts, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]models.ImportSession, error) {
	var sessions []models.ImportSession
	err := s.db.SelectContext(ctx, &sessions,
		"SELECT * FROM import_sessions ORDER BY started_at DESC LIMIT $1", limit)
	return sessions, err
}
