package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

// compile-time checks that *DB implements the user-side interfaces
var (
	_ repository.UserRepository         = (*DB)(nil)
	_ repository.SubscriptionRepository = (*DB)(nil)
)

const userColumns = `id, email, username, first_name, last_name,
	password_hash, avatar, is_admin, created_at, updated_at`

// Create inserts a new user. Email and username are UNIQUE — a duplicate of
// either comes back as a Conflict error, whether or not the service
// pre-checked.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, first_name, last_name,
			password_hash, avatar, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Avatar,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a user with this email or username already exists")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

func (db *DB) scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Avatar, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

func (db *DB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
			&u.PasswordHash, &u.Avatar, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Update rewrites the mutable user fields (name, avatar, password hash).
// Email, username, and is_admin stay as created.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET first_name = ?, last_name = ?, avatar = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?`,
		user.FirstName,
		user.LastName,
		user.Avatar,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user. Join rows cascade; recipes survive with a nulled
// author (ON DELETE SET NULL on recipes.author_id).
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// Subscribe inserts the (follower, author) pair. The UNIQUE (user_id,
// author_id) constraint resolves concurrent duplicate adds — the losing
// request gets a Conflict, never a raw database fault.
func (db *DB) Subscribe(ctx context.Context, userID, authorID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, author_id) VALUES (?, ?)`,
		userID, authorID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("already subscribed to this author")
		}
		return fmt.Errorf("sqlite: subscribing %s to %s: %w", userID, authorID, err)
	}
	return nil
}

func (db *DB) Unsubscribe(ctx context.Context, userID, authorID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = ? AND author_id = ?`,
		userID, authorID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unsubscribing %s from %s: %w", userID, authorID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("subscription", authorID)
	}

	return nil
}

func (db *DB) IsSubscribed(ctx context.Context, userID, authorID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = ? AND author_id = ?`,
		userID, authorID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking subscription: %w", err)
	}
	return count > 0, nil
}

// ListFollowed returns the authors the user follows, ordered by the
// subscription row id descending — most recent subscription first.
func (db *DB) ListFollowed(ctx context.Context, userID string, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name,
			u.password_hash, u.avatar, u.is_admin, u.created_at, u.updated_at
		 FROM users u
		 JOIN subscriptions s ON s.author_id = u.id
		 WHERE s.user_id = ?
		 ORDER BY s.id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing subscriptions: %w", err)
	}
	defer rows.Close()

	authors := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
			&u.PasswordHash, &u.Avatar, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning followed author: %w", err)
		}
		authors = append(authors, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating subscriptions: %w", err)
	}

	return authors, nil
}

// clampListOptions applies the shared pagination defaults: limit 1-100
// (default 20), offset >= 0.
func clampListOptions(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
