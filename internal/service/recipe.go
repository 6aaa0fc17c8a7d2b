// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept primitives and small input structs, never HTTP types, and
// return domain errors (apperror), never status codes. Handlers translate
// both directions.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
	"github.com/akozlova/foodgram/internal/storage"
)

// Validation constants.
const (
	MaxRecipeNameLength = 256
	MinCookingTime      = 1
	MinIngredientAmount = 1
)

// RecipeInput is the write-side contract of the recipe pipeline: what a
// client sends to create or update a recipe. The response is always the
// read representation (model.RecipeDetail), never an echo of this input.
type RecipeInput struct {
	Name        string
	Image       string // base64 data URI; empty on update means "keep current"
	Text        string
	CookingTime int
	Ingredients []model.IngredientAmount
	TagIDs      []string
}

// RecipeService handles business logic for recipes, favorites, shopping
// carts, and the shopping-list aggregation.
type RecipeService struct {
	recipes     repository.RecipeRepository
	joins       repository.JoinRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	users       repository.UserRepository
	subs        repository.SubscriptionRepository
	images      *storage.ImageStore
	logger      *slog.Logger
}

func NewRecipeService(
	recipes repository.RecipeRepository,
	joins repository.JoinRepository,
	tags repository.TagRepository,
	ingredients repository.IngredientRepository,
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	images *storage.ImageStore,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		joins:       joins,
		tags:        tags,
		ingredients: ingredients,
		users:       users,
		subs:        subs,
		images:      images,
		logger:      logger,
	}
}

// validateInput enforces the recipe write rules, in a fixed order so a
// payload with several problems always reports the same (first) one:
//
//  1. ingredients list present and non-empty
//  2. tags list present and non-empty
//  3. cooking time >= 1
//  4. no duplicate tags
//  5. no duplicate ingredient references
//
// plus per-line amount >= 1 and a non-empty, bounded name. All of this runs
// BEFORE any write — a rejected payload performs zero writes.
func validateInput(in *RecipeInput) error {
	if len(in.Ingredients) == 0 {
		return apperror.ValidationFailed("ingredients", "recipe must have at least one ingredient")
	}
	if len(in.TagIDs) == 0 {
		return apperror.ValidationFailed("tags", "recipe must have at least one tag")
	}
	if in.CookingTime < MinCookingTime {
		return apperror.ValidationFailed("cooking_time",
			fmt.Sprintf("cooking time must be at least %d", MinCookingTime))
	}

	seenTags := make(map[string]bool, len(in.TagIDs))
	for _, id := range in.TagIDs {
		if seenTags[id] {
			return apperror.ValidationFailed("tags", "tags must not repeat")
		}
		seenTags[id] = true
	}

	seenIngredients := make(map[string]bool, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if seenIngredients[item.IngredientID] {
			return apperror.ValidationFailed("ingredients", "ingredients must not repeat")
		}
		seenIngredients[item.IngredientID] = true

		if item.Amount < MinIngredientAmount {
			return apperror.ValidationFailed("ingredients",
				fmt.Sprintf("ingredient amount must be at least %d", MinIngredientAmount))
		}
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperror.ValidationFailed("name", "recipe name is required")
	}
	if len(in.Name) > MaxRecipeNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("recipe name must be %d characters or less", MaxRecipeNameLength))
	}

	return nil
}

// resolveReferences verifies that every referenced tag and ingredient
// exists, before the transaction starts.
func (s *RecipeService) resolveReferences(ctx context.Context, in *RecipeInput) error {
	if _, err := s.tags.GetTagsByIDs(ctx, in.TagIDs); err != nil {
		return err
	}
	for _, item := range in.Ingredients {
		if _, err := s.ingredients.GetIngredientByID(ctx, item.IngredientID); err != nil {
			return err
		}
	}
	return nil
}

// Create runs the full recipe write pipeline: validate, resolve references,
// store the image, write everything in one transaction, and return the read
// representation. The author is the authenticated caller and is immutable
// afterwards.
func (s *RecipeService) Create(ctx context.Context, authorID string, in RecipeInput) (*model.RecipeDetail, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if in.Image == "" {
		return nil, apperror.ValidationFailed("image", "recipe image is required")
	}
	if err := s.resolveReferences(ctx, &in); err != nil {
		return nil, err
	}

	imagePath, err := s.images.Save("image", in.Image, "recipe_images")
	if err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Image:       imagePath,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}

	err = s.recipes.CreateRecipe(ctx, repository.RecipeWrite{
		Recipe:      recipe,
		TagIDs:      in.TagIDs,
		Ingredients: in.Ingredients,
	})
	if err != nil {
		s.logger.Error("failed to create recipe",
			slog.String("author", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating recipe: %w", err)
	}

	s.logger.Info("recipe created",
		slog.String("id", recipe.ID),
		slog.String("author", authorID),
	)

	return s.buildDetail(ctx, recipe, authorID)
}

// Update rewrites a recipe. Only the author or an admin may do this. The
// ingredient line-item set and the tag set are REPLACED wholesale inside
// the repository transaction.
func (s *RecipeService) Update(ctx context.Context, callerID string, recipeID string, in RecipeInput) (*model.RecipeDetail, error) {
	recipe, err := s.recipes.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if err := s.checkCanModify(ctx, callerID, recipe.AuthorID); err != nil {
		return nil, err
	}

	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if err := s.resolveReferences(ctx, &in); err != nil {
		return nil, err
	}

	oldImage := ""
	if in.Image != "" {
		imagePath, err := s.images.Save("image", in.Image, "recipe_images")
		if err != nil {
			return nil, err
		}
		oldImage = recipe.Image
		recipe.Image = imagePath
	}

	recipe.Name = in.Name
	recipe.Text = in.Text
	recipe.CookingTime = in.CookingTime

	err = s.recipes.UpdateRecipe(ctx, repository.RecipeWrite{
		Recipe:      recipe,
		TagIDs:      in.TagIDs,
		Ingredients: in.Ingredients,
	})
	if err != nil {
		s.logger.Error("failed to update recipe",
			slog.String("id", recipeID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating recipe: %w", err)
	}

	if oldImage != "" && oldImage != recipe.Image {
		if err := s.images.Remove(oldImage); err != nil {
			s.logger.Warn("failed to remove replaced recipe image",
				slog.String("path", oldImage),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("recipe updated", slog.String("id", recipe.ID))

	return s.buildDetail(ctx, recipe, callerID)
}

// Delete removes a recipe (author or admin only).
func (s *RecipeService) Delete(ctx context.Context, callerID, recipeID string) error {
	recipe, err := s.recipes.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return err
	}

	if err := s.checkCanModify(ctx, callerID, recipe.AuthorID); err != nil {
		return err
	}

	if err := s.recipes.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}

	if err := s.images.Remove(recipe.Image); err != nil {
		s.logger.Warn("failed to remove deleted recipe image",
			slog.String("path", recipe.Image),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("recipe deleted", slog.String("id", recipeID))
	return nil
}

// checkCanModify loads the caller to learn their role, then applies the
// capability check. An anonymous caller never reaches this (middleware),
// but an empty callerID still denies.
func (s *RecipeService) checkCanModify(ctx context.Context, callerID, ownerID string) error {
	if callerID == "" {
		return apperror.Unauthorized("authentication required")
	}
	caller, err := s.users.GetUserByID(ctx, callerID)
	if err != nil {
		return err
	}
	if !CanModify(callerID, ownerID, caller.IsAdmin) {
		return apperror.Forbidden("only the author or an admin may modify this recipe")
	}
	return nil
}

// GetDetail returns the read representation of one recipe relative to the
// viewer (empty viewerID = anonymous).
func (s *RecipeService) GetDetail(ctx context.Context, viewerID, recipeID string) (*model.RecipeDetail, error) {
	recipe, err := s.recipes.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, recipe, viewerID)
}

// List returns recipe details matching the filter, newest first.
func (s *RecipeService) List(ctx context.Context, viewerID string, filter repository.RecipeFilter, opts repository.ListOptions) ([]model.RecipeDetail, error) {
	recipes, err := s.recipes.ListRecipes(ctx, filter, opts)
	if err != nil {
		s.logger.Error("failed to list recipes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing recipes: %w", err)
	}

	details := make([]model.RecipeDetail, 0, len(recipes))
	for i := range recipes {
		detail, err := s.buildDetail(ctx, &recipes[i], viewerID)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}

	return details, nil
}

// buildDetail assembles the single source of truth for "what a recipe looks
// like": expanded tags, expanded line items, the author profile, and the
// viewer-relative is_favorited / is_in_shopping_cart flags (always false
// for anonymous viewers).
func (s *RecipeService) buildDetail(ctx context.Context, recipe *model.Recipe, viewerID string) (*model.RecipeDetail, error) {
	tags, err := s.recipes.RecipeTags(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []model.Tag{}
	}

	ingredients, err := s.recipes.RecipeIngredients(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	if ingredients == nil {
		ingredients = []model.RecipeIngredient{}
	}

	var author model.UserProfile
	if recipe.AuthorID != "" {
		user, err := s.users.GetUserByID(ctx, recipe.AuthorID)
		if err != nil {
			return nil, err
		}
		author, err = profileFor(ctx, s.subs, user, viewerID)
		if err != nil {
			return nil, err
		}
	}

	detail := &model.RecipeDetail{
		ID:          recipe.ID,
		Tags:        tags,
		Author:      author,
		Ingredients: ingredients,
		Name:        recipe.Name,
		Image:       recipe.Image,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
	}

	if viewerID != "" {
		if detail.IsFavorited, err = s.joins.IsFavorited(ctx, viewerID, recipe.ID); err != nil {
			return nil, err
		}
		if detail.IsInShoppingCart, err = s.joins.IsInCart(ctx, viewerID, recipe.ID); err != nil {
			return nil, err
		}
	}

	return detail, nil
}
