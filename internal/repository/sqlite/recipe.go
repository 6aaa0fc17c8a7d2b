package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

var _ repository.RecipeRepository = (*DB)(nil)

// CreateRecipe inserts the recipe row, its tag associations, and its
// ingredient line items in ONE transaction.
//
// TRANSACTIONS WITH database/sql:
// BeginTx starts a transaction; every statement then runs on the tx handle,
// not the pool. Commit makes all of it visible at once; Rollback (deferred,
// a no-op after a successful Commit) undoes everything if any statement
// failed. A recipe must never be observable with a missing tag set or a
// partial line-item set.
func (db *DB) CreateRecipe(ctx context.Context, write repository.RecipeWrite) error {
	recipe := write.Recipe
	recipe.ID = xid.New().String()
	recipe.CreatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning recipe create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, author_id, name, image, text, cooking_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		nullableID(recipe.AuthorID),
		recipe.Name,
		recipe.Image,
		recipe.Text,
		recipe.CookingTime,
		recipe.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting recipe: %w", err)
	}

	if err := insertAssociations(ctx, tx, recipe.ID, write.TagIDs, write.Ingredients); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing recipe create: %w", err)
	}

	return nil
}

// UpdateRecipe rewrites the recipe row and REPLACES the full tag set and the
// full line-item set (delete-all-then-recreate) in one transaction. The
// author reference is immutable and deliberately not part of the UPDATE.
func (db *DB) UpdateRecipe(ctx context.Context, write repository.RecipeWrite) error {
	recipe := write.Recipe

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning recipe update: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE recipes SET name = ?, image = ?, text = ?, cooking_time = ? WHERE id = ?`,
		recipe.Name,
		recipe.Image,
		recipe.Text,
		recipe.CookingTime,
		recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating recipe %s: %w", recipe.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("recipe", recipe.ID)
	}

	// Replace both association sets wholesale. Deleting first keeps the
	// UNIQUE (recipe, ingredient) constraint out of the way for rows that
	// stay the same between versions.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_tags WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("sqlite: clearing recipe tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("sqlite: clearing recipe ingredients: %w", err)
	}

	if err := insertAssociations(ctx, tx, recipe.ID, write.TagIDs, write.Ingredients); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing recipe update: %w", err)
	}

	return nil
}

// insertAssociations bulk-inserts the tag set and the line-item set on the
// given transaction. Shared by CreateRecipe and UpdateRecipe.
func insertAssociations(ctx context.Context, tx *sql.Tx, recipeID string, tagIDs []string, ingredients []model.IngredientAmount) error {
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`,
			recipeID, tagID,
		); err != nil {
			return fmt.Errorf("sqlite: inserting recipe tag: %w", err)
		}
	}

	for _, item := range ingredients {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)`,
			recipeID, item.IngredientID, item.Amount,
		); err != nil {
			return fmt.Errorf("sqlite: inserting recipe ingredient: %w", err)
		}
	}

	return nil
}

// nullableID turns an empty string into a SQL NULL so the foreign key does
// not trip on "" (recipes whose author was deleted carry NULL, not "").
func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

const recipeColumns = `id, COALESCE(author_id, ''), name, image, text, cooking_time, created_at`

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	err := scanner.Scan(
		&r.ID, &r.AuthorID, &r.Name, &r.Image, &r.Text, &r.CookingTime, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error) {
	recipe, err := scanRecipe(db.conn.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("sqlite: getting recipe %s: %w", id, err)
	}
	return recipe, nil
}

// ListRecipes returns recipes newest first, applying the optional filters:
// tag slugs (recipe has ANY of them), author, membership in a user's
// favorites, membership in a user's cart.
//
// The filter is assembled as a WHERE clause from parameterized fragments —
// user values only ever travel through ? placeholders.
func (db *DB) ListRecipes(ctx context.Context, filter repository.RecipeFilter, opts repository.ListOptions) ([]model.Recipe, error) {
	limit, offset := clampListOptions(opts)

	var (
		conditions []string
		args       []any
	)

	if len(filter.TagSlugs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.TagSlugs)), ",")
		conditions = append(conditions,
			`r.id IN (SELECT rt.recipe_id FROM recipe_tags rt
				JOIN tags t ON t.id = rt.tag_id
				WHERE t.slug IN (`+placeholders+`))`)
		for _, slug := range filter.TagSlugs {
			args = append(args, slug)
		}
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, `r.author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if filter.FavoritedBy != "" {
		conditions = append(conditions,
			`r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)`)
		args = append(args, filter.FavoritedBy)
	}
	if filter.InCartOf != "" {
		conditions = append(conditions,
			`r.id IN (SELECT recipe_id FROM shopping_carts WHERE user_id = ?)`)
		args = append(args, filter.InCartOf)
	}

	query := `SELECT r.id, COALESCE(r.author_id, ''), r.name, r.image, r.text,
		r.cooking_time, r.created_at FROM recipes r`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY r.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]model.Recipe, 0, limit)
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}

	return recipes, nil
}

// DeleteRecipe removes a recipe. Line items, tag links, favorites, and cart
// entries cascade away with it.
func (db *DB) DeleteRecipe(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("recipe", id)
	}

	return nil
}

func (db *DB) CountRecipesByAuthor(ctx context.Context, authorID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipes WHERE author_id = ?`, authorID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting recipes by author: %w", err)
	}
	return count, nil
}

func (db *DB) ListRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes
		 WHERE author_id = ? ORDER BY created_at DESC`
	args := []any{authorID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes by author: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}

	return recipes, nil
}

// RecipeIngredients expands a recipe's line items by joining them to the
// ingredient catalogue: (id, name, unit, amount) per line.
func (db *DB) RecipeIngredients(ctx context.Context, recipeID string) ([]model.RecipeIngredient, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.id, i.name, i.measurement_unit, ri.amount
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ?
		 ORDER BY i.name`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting recipe ingredients: %w", err)
	}
	defer rows.Close()

	var items []model.RecipeIngredient
	for rows.Next() {
		var item model.RecipeIngredient
		if err := rows.Scan(&item.ID, &item.Name, &item.MeasurementUnit, &item.Amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating line items: %w", err)
	}

	return items, nil
}

func (db *DB) RecipeTags(ctx context.Context, recipeID string) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.name, t.slug
		 FROM recipe_tags rt
		 JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id = ?
		 ORDER BY t.name`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting recipe tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipe tags: %w", err)
	}

	return tags, nil
}
