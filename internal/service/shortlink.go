package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

const (
	// shortTokenLength keeps links genuinely short. 62^4 ≈ 14.8M tokens
	// is plenty for this catalogue; the uniqueness constraint plus the
	// retry loop below handles the occasional collision.
	shortTokenLength = 4
	// maxTokenAttempts bounds the retry-on-collision loop. Hitting it
	// means the token space is effectively exhausted, which is a server
	// problem, not a client one.
	maxTokenAttempts = 5
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ShortLinkService mints and resolves short recipe links.
//
// The base URL is explicit configuration passed in at construction time —
// the service never reads the environment itself.
type ShortLinkService struct {
	links   repository.ShortLinkRepository
	recipes repository.RecipeRepository
	baseURL string
	logger  *slog.Logger
}

func NewShortLinkService(
	links repository.ShortLinkRepository,
	recipes repository.RecipeRepository,
	baseURL string,
	logger *slog.Logger,
) *ShortLinkService {
	return &ShortLinkService{
		links:   links,
		recipes: recipes,
		baseURL: baseURL,
		logger:  logger,
	}
}

// recipeURL is the canonical full URL a short link points at.
func (s *ShortLinkService) recipeURL(recipeID string) string {
	return s.baseURL + "/recipes/" + recipeID + "/"
}

// shortURL renders a token as the public short form.
func (s *ShortLinkService) shortURL(token string) string {
	return s.baseURL + "/s/" + token
}

// GetOrCreate returns the short URL for a recipe, minting the mapping on
// first request. Idempotent: repeated calls for the same recipe return the
// identical token.
//
// Collision handling: a freshly generated token may collide with an
// existing row. The UNIQUE constraint rejects the insert, and we retry with
// a new token a bounded number of times. A concurrent create for the same
// recipe is also possible — then the original_url uniqueness trips instead,
// and the re-read returns the winner's token.
func (s *ShortLinkService) GetOrCreate(ctx context.Context, recipeID string) (string, error) {
	if _, err := s.recipes.GetRecipeByID(ctx, recipeID); err != nil {
		return "", err
	}

	originalURL := s.recipeURL(recipeID)

	if link, err := s.links.GetShortLinkByURL(ctx, originalURL); err == nil {
		return s.shortURL(link.Token), nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return "", err
	}

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := randomToken(shortTokenLength)
		if err != nil {
			return "", fmt.Errorf("generating short token: %w", err)
		}

		err = s.links.CreateShortLink(ctx, &model.ShortLink{
			Token:       token,
			OriginalURL: originalURL,
		})
		if err == nil {
			s.logger.Info("short link created",
				slog.String("recipe", recipeID),
				slog.String("token", token),
			)
			return s.shortURL(token), nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return "", err
		}

		// Conflict: either our token collided or another request just
		// created the mapping for this URL. Re-read to find out.
		if link, err := s.links.GetShortLinkByURL(ctx, originalURL); err == nil {
			return s.shortURL(link.Token), nil
		}
	}

	return "", fmt.Errorf("short link: exhausted %d token attempts for recipe %s",
		maxTokenAttempts, recipeID)
}

// Resolve maps a short token back to the full recipe URL.
// Returns a NotFound error (surfaced as 404) for unknown tokens.
func (s *ShortLinkService) Resolve(ctx context.Context, token string) (string, error) {
	link, err := s.links.GetShortLinkByToken(ctx, token)
	if err != nil {
		return "", err
	}
	return link.OriginalURL, nil
}

// randomToken draws n characters from the alphanumeric alphabet using
// crypto/rand. The slight modulo bias is irrelevant here — tokens are
// opaque identifiers, not secrets.
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = tokenAlphabet[int(buf[i])%len(tokenAlphabet)]
	}
	return string(buf), nil
}
