package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/auth"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
	"github.com/akozlova/foodgram/internal/storage"
)

const (
	MaxEmailLength    = 254
	MaxUsernameLength = 150
	MaxNameLength     = 150
	MinPasswordLength = 8
)

// usernameRe is the allowed username alphabet: word characters plus the
// usual handle punctuation.
var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// emailRe is a sanity check, not an RFC 5322 validator: something@something
// with no spaces. Deliverability is the mail server's problem.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegisterInput is the write-side contract of registration. The password
// only ever exists here in plaintext; it is hashed before anything is
// stored and never serialized back out.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// UserService handles identity and the social graph: registration, login,
// profile reads, avatar management, password change, and subscriptions.
type UserService struct {
	users     repository.UserRepository
	subs      repository.SubscriptionRepository
	recipes   repository.RecipeRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	images    *storage.ImageStore
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	recipes repository.RecipeRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	images *storage.ImageStore,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		subs:      subs,
		recipes:   recipes,
		tokens:    tokens,
		passwords: passwords,
		images:    images,
		logger:    logger,
	}
}

// Register validates and creates a new account. Email and username
// uniqueness is ultimately enforced by the database constraints — a
// duplicate comes back as a Conflict even when two registrations race.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	switch {
	case in.Email == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case len(in.Email) > MaxEmailLength || !emailRe.MatchString(in.Email):
		return nil, apperror.ValidationFailed("email", "invalid email address")
	case in.Username == "":
		return nil, apperror.ValidationFailed("username", "username is required")
	case len(in.Username) > MaxUsernameLength || !usernameRe.MatchString(in.Username):
		return nil, apperror.ValidationFailed("username",
			"username may only contain letters, digits and . @ + - _")
	case in.FirstName == "" || len(in.FirstName) > MaxNameLength:
		return nil, apperror.ValidationFailed("first_name", "first name is required")
	case in.LastName == "" || len(in.LastName) > MaxNameLength:
		return nil, apperror.ValidationFailed("last_name", "last name is required")
	case len(in.Password) < MinPasswordLength:
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and issues a token. Wrong email and wrong
// password produce the same error — no account enumeration.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return "", apperror.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("id", user.ID))
	return token, nil
}

// SetPassword changes the caller's password after verifying the current one.
func (s *UserService) SetPassword(ctx context.Context, userID, current, newPassword string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, current); err != nil {
		return apperror.ValidationFailed("current_password", "current password is incorrect")
	}
	if len(newPassword) < MinPasswordLength {
		return apperror.ValidationFailed("new_password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("new_password", err.Error())
	}

	user.PasswordHash = hash
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.String("id", userID))
	return nil
}

// Profile returns the read representation of one user relative to the
// viewer (is_subscribed; always false for anonymous viewers).
func (s *UserService) Profile(ctx context.Context, viewerID, userID string) (*model.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profileOf(ctx, user, viewerID)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns user profiles, paginated.
func (s *UserService) List(ctx context.Context, viewerID string, opts repository.ListOptions) ([]model.UserProfile, error) {
	users, err := s.users.ListUsers(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	profiles := make([]model.UserProfile, 0, len(users))
	for i := range users {
		p, err := s.profileOf(ctx, &users[i], viewerID)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, nil
}

// UpdateName changes the caller's first/last name.
func (s *UserService) UpdateName(ctx context.Context, userID, firstName, lastName string) (*model.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if firstName = strings.TrimSpace(firstName); firstName != "" {
		if len(firstName) > MaxNameLength {
			return nil, apperror.ValidationFailed("first_name", "first name is too long")
		}
		user.FirstName = firstName
	}
	if lastName = strings.TrimSpace(lastName); lastName != "" {
		if len(lastName) > MaxNameLength {
			return nil, apperror.ValidationFailed("last_name", "last name is too long")
		}
		user.LastName = lastName
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	profile, err := s.profileOf(ctx, user, userID)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetAvatar decodes and stores a base64 avatar image, then points the user
// row at it. The old file is removed only after the row update succeeded,
// so a failed write never leaves the user without their previous avatar.
func (s *UserService) SetAvatar(ctx context.Context, userID, dataURI string) (*model.UserProfile, error) {
	if dataURI == "" {
		return nil, apperror.ValidationFailed("avatar", "avatar field is required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	path, err := s.images.Save("avatar", dataURI, "user_images")
	if err != nil {
		return nil, err
	}

	oldAvatar := user.Avatar
	user.Avatar = path
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	if oldAvatar != "" {
		if err := s.images.Remove(oldAvatar); err != nil {
			s.logger.Warn("failed to remove replaced avatar",
				slog.String("path", oldAvatar),
				slog.String("error", err.Error()),
			)
		}
	}

	profile, err := s.profileOf(ctx, user, userID)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeleteAvatar clears the avatar reference and removes the stored file.
func (s *UserService) DeleteAvatar(ctx context.Context, userID string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	oldAvatar := user.Avatar
	user.Avatar = ""
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	if err := s.images.Remove(oldAvatar); err != nil {
		s.logger.Warn("failed to remove avatar file",
			slog.String("path", oldAvatar),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// Subscribe adds (follower=userID, author=authorID) and returns the
// author's enriched profile. Self-subscription is rejected here, at the
// write boundary — there is deliberately no schema constraint for it.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID string, recipesLimit int) (*model.AuthorProfile, error) {
	if userID == authorID {
		return nil, apperror.Conflict("you cannot subscribe to yourself")
	}

	author, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	if err := s.subs.Subscribe(ctx, userID, authorID); err != nil {
		return nil, err
	}

	s.logger.Info("subscribed",
		slog.String("user", userID),
		slog.String("author", authorID),
	)

	return s.authorProfile(ctx, author, userID, recipesLimit)
}

// Unsubscribe removes the pair. An unknown author is a missing resource
// (404), but removing a subscription that was never made is a bad request —
// the same remove-of-absent contract as the favorite and cart toggles.
func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID string) error {
	if _, err := s.users.GetUserByID(ctx, authorID); err != nil {
		return err
	}
	if err := s.subs.Unsubscribe(ctx, userID, authorID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("subscription", "you are not subscribed to this author")
		}
		return err
	}
	return nil
}

// Subscriptions lists the authors the caller follows, most recent
// subscription first, each enriched with their recipes (optionally
// truncated to recipesLimit) and total recipe count.
func (s *UserService) Subscriptions(ctx context.Context, userID string, recipesLimit int, opts repository.ListOptions) ([]model.AuthorProfile, error) {
	authors, err := s.subs.ListFollowed(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}

	profiles := make([]model.AuthorProfile, 0, len(authors))
	for i := range authors {
		p, err := s.authorProfile(ctx, &authors[i], userID, recipesLimit)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	return profiles, nil
}

func (s *UserService) profileOf(ctx context.Context, user *model.User, viewerID string) (model.UserProfile, error) {
	return profileFor(ctx, s.subs, user, viewerID)
}

// authorProfile builds the enriched representation returned by subscribe
// and the subscriptions listing. RecipesCount is the author's full count
// even when the embedded list is truncated by recipesLimit.
func (s *UserService) authorProfile(ctx context.Context, author *model.User, viewerID string, recipesLimit int) (*model.AuthorProfile, error) {
	profile, err := s.profileOf(ctx, author, viewerID)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipes.ListRecipesByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		summaries = append(summaries, model.RecipeSummary{
			ID:          r.ID,
			Name:        r.Name,
			Image:       r.Image,
			CookingTime: r.CookingTime,
		})
	}

	count, err := s.recipes.CountRecipesByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	return &model.AuthorProfile{
		UserProfile:  profile,
		Recipes:      summaries,
		RecipesCount: count,
	}, nil
}
