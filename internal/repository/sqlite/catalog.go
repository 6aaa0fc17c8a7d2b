package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

var (
	_ repository.TagRepository        = (*DB)(nil)
	_ repository.IngredientRepository = (*DB)(nil)
)

// CreateTag inserts a tag. Name and slug are both UNIQUE.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	tag.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (id, name, slug) VALUES (?, ?, ?)`,
		tag.ID, tag.Name, tag.Slug,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a tag with this name or slug already exists")
		}
		return fmt.Errorf("sqlite: creating tag: %w", err)
	}
	return nil
}

func (db *DB) GetTagByID(ctx context.Context, id string) (*model.Tag, error) {
	var t model.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}
	return &t, nil
}

func (db *DB) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}

// GetTagsByIDs resolves a set of tag ids in one query. The result order
// follows the input order; a missing id is a NotFound error so the recipe
// write pipeline can reject payloads referencing nonexistent tags.
func (db *DB) GetTagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, slug FROM tags WHERE id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting tags by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]model.Tag, len(ids))
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	tags := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, apperror.NotFound("tag", id)
		}
		tags = append(tags, t)
	}

	return tags, nil
}

// CreateIngredient inserts a catalogue entry. No uniqueness here — the same
// name may legitimately exist with different measurement units.
func (db *DB) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	ingredient.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, measurement_unit) VALUES (?, ?, ?)`,
		ingredient.ID, ingredient.Name, ingredient.MeasurementUnit,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating ingredient: %w", err)
	}
	return nil
}

func (db *DB) GetIngredientByID(ctx context.Context, id string) (*model.Ingredient, error) {
	var ing model.Ingredient
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id,
	).Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("ingredient", id)
		}
		return nil, fmt.Errorf("sqlite: getting ingredient %s: %w", id, err)
	}
	return &ing, nil
}

// ListIngredients returns the catalogue, optionally restricted to names
// starting with namePrefix. The prefix match is case-insensitive and
// literal: LIKE metacharacters in the user-supplied prefix are escaped, so
// "100%" matches names starting with "100%", not "100<anything>".
func (db *DB) ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	query := `SELECT id, name, measurement_unit FROM ingredients`
	var args []any
	if namePrefix != "" {
		query += ` WHERE name COLLATE NOCASE LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(namePrefix)+"%")
	}
	query += ` ORDER BY name`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []model.Ingredient
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("sqlite: scanning ingredient row: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating ingredients: %w", err)
	}

	return ingredients, nil
}

// escapeLike neutralises the LIKE metacharacters in user input so the
// pattern matches them literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
