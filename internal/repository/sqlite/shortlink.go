package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

var _ repository.ShortLinkRepository = (*DB)(nil)

// GetShortLinkByURL looks up the existing mapping for an original URL. The
// short-link service calls this first so repeated get-link requests for the
// same recipe reuse the existing token instead of minting new ones.
func (db *DB) GetShortLinkByURL(ctx context.Context, originalURL string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := db.conn.QueryRowContext(ctx,
		`SELECT token, original_url FROM short_links WHERE original_url = ?`,
		originalURL,
	).Scan(&link.Token, &link.OriginalURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("short link", originalURL)
		}
		return nil, fmt.Errorf("sqlite: getting short link by url: %w", err)
	}
	return &link, nil
}

func (db *DB) GetShortLinkByToken(ctx context.Context, token string) (*model.ShortLink, error) {
	var link model.ShortLink
	err := db.conn.QueryRowContext(ctx,
		`SELECT token, original_url FROM short_links WHERE token = ?`,
		token,
	).Scan(&link.Token, &link.OriginalURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("short link", token)
		}
		return nil, fmt.Errorf("sqlite: getting short link by token: %w", err)
	}
	return &link, nil
}

// CreateShortLink persists a token → URL mapping. Both columns are unique:
// a token collision surfaces as Conflict (the service retries with a fresh
// token), and a concurrent create for the same URL also surfaces as Conflict
// (the service re-reads and returns the winner's token).
func (db *DB) CreateShortLink(ctx context.Context, link *model.ShortLink) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO short_links (token, original_url) VALUES (?, ?)`,
		link.Token, link.OriginalURL,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("short link already exists")
		}
		return fmt.Errorf("sqlite: creating short link: %w", err)
	}
	return nil
}
