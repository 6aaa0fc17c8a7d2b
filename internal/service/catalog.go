package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

// CatalogService serves the read-only reference data: tags and the
// ingredient catalogue. Writes happen out of band (seeding), so this is
// thin on purpose.
type CatalogService struct {
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	logger      *slog.Logger
}

func NewCatalogService(
	tags repository.TagRepository,
	ingredients repository.IngredientRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		tags:        tags,
		ingredients: ingredients,
		logger:      logger,
	}
}

func (s *CatalogService) Tags(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	return tags, nil
}

func (s *CatalogService) Tag(ctx context.Context, id string) (*model.Tag, error) {
	return s.tags.GetTagByID(ctx, id)
}

// Ingredients lists the catalogue, optionally restricted to names starting
// with the given prefix.
func (s *CatalogService) Ingredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	ingredients, err := s.ingredients.ListIngredients(ctx, strings.TrimSpace(namePrefix))
	if err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	if ingredients == nil {
		ingredients = []model.Ingredient{}
	}
	return ingredients, nil
}

func (s *CatalogService) Ingredient(ctx context.Context, id string) (*model.Ingredient, error) {
	return s.ingredients.GetIngredientByID(ctx, id)
}
