package sqlite

import (
	"context"
	"fmt"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

var _ repository.JoinRepository = (*DB)(nil)

// The favorites and shopping_carts tables are identical in shape, so the
// four add/remove methods delegate to two table-parameterized helpers. The
// table name is baked in by the caller, never taken from user input.

func (db *DB) addJoin(ctx context.Context, table, userID, recipeID, conflictMsg string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO `+table+` (user_id, recipe_id) VALUES (?, ?)`,
		userID, recipeID,
	)
	if err != nil {
		// The UNIQUE (user_id, recipe_id) constraint is the final
		// authority when two adds race; the loser lands here.
		if isUniqueViolation(err) {
			return apperror.Conflict(conflictMsg)
		}
		return fmt.Errorf("sqlite: inserting into %s: %w", table, err)
	}
	return nil
}

func (db *DB) removeJoin(ctx context.Context, table, userID, recipeID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting from %s: %w", table, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(table+" entry", recipeID)
	}

	return nil
}

func (db *DB) hasJoin(ctx context.Context, table, userID, recipeID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE user_id = ? AND recipe_id = ?`,
		userID, recipeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking %s: %w", table, err)
	}
	return count > 0, nil
}

func (db *DB) AddFavorite(ctx context.Context, userID, recipeID string) error {
	return db.addJoin(ctx, "favorites", userID, recipeID, "recipe already favorited")
}

func (db *DB) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	return db.removeJoin(ctx, "favorites", userID, recipeID)
}

func (db *DB) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	return db.hasJoin(ctx, "favorites", userID, recipeID)
}

func (db *DB) AddToCart(ctx context.Context, userID, recipeID string) error {
	return db.addJoin(ctx, "shopping_carts", userID, recipeID, "recipe already in shopping cart")
}

func (db *DB) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	return db.removeJoin(ctx, "shopping_carts", userID, recipeID)
}

func (db *DB) IsInCart(ctx context.Context, userID, recipeID string) (bool, error) {
	return db.hasJoin(ctx, "shopping_carts", userID, recipeID)
}

// CartItems is the shopping-list aggregation: every line item of every
// recipe in the user's cart, grouped by (ingredient name, measurement unit)
// with summed amounts. "Flour, g" from two recipes becomes one row with the
// total. Ordered by name then unit so repeated calls with the same cart
// produce identical output.
func (db *DB) CartItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.name, i.measurement_unit, SUM(ri.amount)
		 FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 JOIN shopping_carts sc ON sc.recipe_id = ri.recipe_id
		 WHERE sc.user_id = ?
		 GROUP BY i.name, i.measurement_unit
		 ORDER BY i.name, i.measurement_unit`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating cart: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.Name, &item.MeasurementUnit, &item.Amount); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cart items: %w", err)
	}

	return items, nil
}

func (db *DB) CartIsEmpty(ctx context.Context, userID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shopping_carts WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: counting cart entries: %w", err)
	}
	return count == 0, nil
}
