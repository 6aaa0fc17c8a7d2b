package repository

import (
	"context"

	"github.com/akozlova/foodgram/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// RecipeFilter narrows the recipe listing. Zero values mean "no filter".
// FavoritedBy / InCartOf hold the user ID whose favorites / cart should be
// intersected with the listing.
type RecipeFilter struct {
	TagSlugs    []string
	AuthorID    string
	FavoritedBy string
	InCartOf    string
}

// RecipeWrite bundles everything the recipe write transaction touches: the
// recipe row itself, the full tag set, and the full ingredient line-item set.
// On update both sets REPLACE the existing ones; the repository must apply
// all of it atomically or none of it.
type RecipeWrite struct {
	Recipe      *model.Recipe
	TagIDs      []string
	Ingredients []model.IngredientAmount
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
}

type SubscriptionRepository interface {
	// Subscribe inserts the (follower, author) pair. Returns a Conflict
	// error if the pair already exists (UNIQUE constraint, race-safe).
	Subscribe(ctx context.Context, userID, authorID string) error
	// Unsubscribe deletes the pair. Returns NotFound if no row matched.
	Unsubscribe(ctx context.Context, userID, authorID string) error
	IsSubscribed(ctx context.Context, userID, authorID string) (bool, error)
	// ListFollowed returns the authors the user follows, most recent
	// subscription first.
	ListFollowed(ctx context.Context, userID string, opts ListOptions) ([]model.User, error)
}

type TagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTagByID(ctx context.Context, id string) (*model.Tag, error)
	ListTags(ctx context.Context) ([]model.Tag, error)
	// GetTagsByIDs resolves ids preserving input order; any missing id is
	// a NotFound error.
	GetTagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
}

type IngredientRepository interface {
	CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error
	GetIngredientByID(ctx context.Context, id string) (*model.Ingredient, error)
	// ListIngredients returns entries, optionally restricted to names
	// starting with namePrefix (case-insensitive).
	ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error)
}

type RecipeRepository interface {
	// CreateRecipe writes the recipe row, its tag associations, and its
	// line items in one transaction.
	CreateRecipe(ctx context.Context, write RecipeWrite) error
	// UpdateRecipe rewrites the recipe row and REPLACES the tag set and
	// the line-item set in one transaction. Stale line items must not
	// survive a partial failure.
	UpdateRecipe(ctx context.Context, write RecipeWrite) error
	GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error)
	ListRecipes(ctx context.Context, filter RecipeFilter, opts ListOptions) ([]model.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	CountRecipesByAuthor(ctx context.Context, authorID string) (int, error)
	// ListRecipesByAuthor returns the author's recipes newest first,
	// truncated to limit when limit > 0.
	ListRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]model.Recipe, error)
	// RecipeIngredients returns the expanded line items of one recipe.
	RecipeIngredients(ctx context.Context, recipeID string) ([]model.RecipeIngredient, error)
	RecipeTags(ctx context.Context, recipeID string) ([]model.Tag, error)
}

// JoinRepository covers the two symmetric join entities (favorites and
// shopping cart). Add returns a Conflict error on a duplicate pair; Remove
// returns NotFound when no row matched.
type JoinRepository interface {
	AddFavorite(ctx context.Context, userID, recipeID string) error
	RemoveFavorite(ctx context.Context, userID, recipeID string) error
	IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)
	AddToCart(ctx context.Context, userID, recipeID string) error
	RemoveFromCart(ctx context.Context, userID, recipeID string) error
	IsInCart(ctx context.Context, userID, recipeID string) (bool, error)
	// CartItems aggregates every line item of every recipe in the user's
	// cart, grouped by (ingredient name, unit) with summed amounts, in a
	// deterministic order (sorted by name, then unit).
	CartItems(ctx context.Context, userID string) ([]model.CartItem, error)
	CartIsEmpty(ctx context.Context, userID string) (bool, error)
}

type ShortLinkRepository interface {
	// GetShortLinkByURL returns the existing mapping for an original URL,
	// or a NotFound error.
	GetShortLinkByURL(ctx context.Context, originalURL string) (*model.ShortLink, error)
	GetShortLinkByToken(ctx context.Context, token string) (*model.ShortLink, error)
	// CreateShortLink inserts the mapping. Returns a Conflict error if
	// the token collides with an existing one.
	CreateShortLink(ctx context.Context, link *model.ShortLink) error
}
