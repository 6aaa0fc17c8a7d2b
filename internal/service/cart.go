package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
)

// Favorite and shopping cart are two symmetric join entities sharing one
// contract: add fails on a duplicate pair or an unknown recipe, remove fails
// when the pair isn't there, and a successful add returns the short recipe
// summary. The table-specific work is delegated to the JoinRepository; the
// UNIQUE constraint there settles races that slip past no pre-check at all —
// we go straight to the insert and translate the constraint error.

// Favorite adds the recipe to the user's favorites.
func (s *RecipeService) Favorite(ctx context.Context, userID, recipeID string) (*model.RecipeSummary, error) {
	return s.addJoin(ctx, userID, recipeID, s.joins.AddFavorite)
}

// Unfavorite removes the recipe from the user's favorites.
func (s *RecipeService) Unfavorite(ctx context.Context, userID, recipeID string) error {
	return removeJoinResult(s.joins.RemoveFavorite(ctx, userID, recipeID),
		"recipe is not in favorites")
}

// AddToCart adds the recipe to the user's shopping cart.
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID string) (*model.RecipeSummary, error) {
	return s.addJoin(ctx, userID, recipeID, s.joins.AddToCart)
}

// RemoveFromCart removes the recipe from the user's shopping cart.
func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	return removeJoinResult(s.joins.RemoveFromCart(ctx, userID, recipeID),
		"recipe is not in the shopping cart")
}

// removeJoinResult translates a remove of an absent pair: the client is
// undoing something it never did, which the contract reports as a bad
// request, not a missing resource. Store failures pass through untouched.
func removeJoinResult(err error, message string) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.ValidationFailed("recipe", message)
	}
	return err
}

func (s *RecipeService) addJoin(ctx context.Context, userID, recipeID string, add func(context.Context, string, string) error) (*model.RecipeSummary, error) {
	// An add against an unknown recipe is a client error on THIS request,
	// not a missing resource at the URL — the contract reports it as a
	// validation failure (400). Anything else from the store is a real
	// failure and propagates as one.
	recipe, err := s.recipes.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("recipe", "recipe not found")
		}
		return nil, err
	}

	if err := add(ctx, userID, recipeID); err != nil {
		return nil, err
	}

	return &model.RecipeSummary{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}, nil
}

// ShoppingList aggregates the user's cart into a downloadable plain-text
// listing: one line per (ingredient, unit) group with the summed amount,
// under a header naming the user and the date. Groups are sorted by
// ingredient name (then unit), so the same cart always renders the same
// bytes. Fails with a validation error if the cart is empty.
func (s *RecipeService) ShoppingList(ctx context.Context, userID string) (filename string, content []byte, err error) {
	empty, err := s.joins.CartIsEmpty(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("checking cart: %w", err)
	}
	if empty {
		return "", nil, apperror.ValidationFailed("shopping_cart", "shopping cart is empty")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	items, err := s.joins.CartItems(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("aggregating cart: %w", err)
	}

	now := time.Now()

	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for: %s\n\n", user.FullName())
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format("02-01-2006"))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s) - %d\n", item.Name, item.MeasurementUnit, item.Amount)
	}
	fmt.Fprintf(&b, "\nFoodgram (%d)\n", now.Year())

	s.logger.Info("shopping list generated",
		slog.String("user", userID),
		slog.Int("groups", len(items)),
	)

	return user.Username + "_shopping_list.txt", []byte(b.String()), nil
}
