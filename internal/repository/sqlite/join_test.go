package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
)

// =========================================================================
// FAVORITE / CART TOGGLE TESTS
// =========================================================================

func TestAddFavorite_Duplicate(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "liker")
	tag := seedTag(t, db, "Lunch", "lunch")
	flour := seedIngredient(t, db, "flour", "g")
	recipe := seedRecipe(t, db, user.ID, "Pie", []string{tag.ID},
		[]model.IngredientAmount{{IngredientID: flour.ID, Amount: 1}})

	if err := db.AddFavorite(context.Background(), user.ID, recipe.ID); err != nil {
		t.Fatalf("first AddFavorite() error = %v", err)
	}

	// The UNIQUE constraint must report the second add as a Conflict
	err := db.AddFavorite(context.Background(), user.ID, recipe.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second AddFavorite() error = %v, want ErrConflict", err)
	}
}

func TestRemoveFavorite_Absent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "liker")
	tag := seedTag(t, db, "Lunch", "lunch")
	flour := seedIngredient(t, db, "flour", "g")
	recipe := seedRecipe(t, db, user.ID, "Pie", []string{tag.ID},
		[]model.IngredientAmount{{IngredientID: flour.ID, Amount: 1}})

	err := db.RemoveFavorite(context.Background(), user.ID, recipe.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("RemoveFavorite() on absent pair error = %v, want ErrNotFound", err)
	}
}

func TestFavoriteAndCart_AreIndependent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "shopper")
	tag := seedTag(t, db, "Lunch", "lunch")
	flour := seedIngredient(t, db, "flour", "g")
	recipe := seedRecipe(t, db, user.ID, "Pie", []string{tag.ID},
		[]model.IngredientAmount{{IngredientID: flour.ID, Amount: 1}})

	if err := db.AddToCart(context.Background(), user.ID, recipe.ID); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	inCart, _ := db.IsInCart(context.Background(), user.ID, recipe.ID)
	if !inCart {
		t.Error("IsInCart() = false after AddToCart")
	}
	fav, _ := db.IsFavorited(context.Background(), user.ID, recipe.ID)
	if fav {
		t.Error("IsFavorited() = true, but the recipe was only added to the cart")
	}
}

// =========================================================================
// CART AGGREGATION TESTS
// =========================================================================

// TestCartItems_Aggregation is the core shopping-list behavior: flour from
// two different recipes in the cart is summed into ONE line (200 + 300 =
// 500), while milk stays its own line, and everything comes back sorted by
// name.
func TestCartItems_Aggregation(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "shopper")
	tag := seedTag(t, db, "Lunch", "lunch")
	flour := seedIngredient(t, db, "flour", "g")
	milk := seedIngredient(t, db, "milk", "ml")

	pancakes := seedRecipe(t, db, user.ID, "Pancakes", []string{tag.ID},
		[]model.IngredientAmount{
			{IngredientID: flour.ID, Amount: 200},
			{IngredientID: milk.ID, Amount: 500},
		})
	bread := seedRecipe(t, db, user.ID, "Bread", []string{tag.ID},
		[]model.IngredientAmount{
			{IngredientID: flour.ID, Amount: 300},
		})

	for _, id := range []string{pancakes.ID, bread.ID} {
		if err := db.AddToCart(context.Background(), user.ID, id); err != nil {
			t.Fatalf("AddToCart(%s) error = %v", id, err)
		}
	}

	items, err := db.CartItems(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("CartItems() error = %v", err)
	}

	want := []model.CartItem{
		{Name: "flour", MeasurementUnit: "g", Amount: 500},
		{Name: "milk", MeasurementUnit: "ml", Amount: 500},
	}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(items), len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, items[i], want[i])
		}
	}
}

// Same ingredient name with DIFFERENT units must stay two separate lines —
// 200 g of milk and 500 ml of milk cannot be summed.
func TestCartItems_SameNameDifferentUnits(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "shopper")
	tag := seedTag(t, db, "Lunch", "lunch")
	milkMl := seedIngredient(t, db, "milk", "ml")
	milkG := seedIngredient(t, db, "milk", "g")

	recipe := seedRecipe(t, db, user.ID, "Custard", []string{tag.ID},
		[]model.IngredientAmount{
			{IngredientID: milkMl.ID, Amount: 500},
			{IngredientID: milkG.ID, Amount: 200},
		})
	if err := db.AddToCart(context.Background(), user.ID, recipe.ID); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	items, err := db.CartItems(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("CartItems() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2 separate lines for different units: %+v", len(items), items)
	}
	// Sorted by name then unit: (milk, g) before (milk, ml)
	if items[0].MeasurementUnit != "g" || items[1].MeasurementUnit != "ml" {
		t.Errorf("unit order = [%s %s], want [g ml]", items[0].MeasurementUnit, items[1].MeasurementUnit)
	}
}

func TestCartIsEmpty(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "shopper")
	tag := seedTag(t, db, "Lunch", "lunch")
	flour := seedIngredient(t, db, "flour", "g")
	recipe := seedRecipe(t, db, user.ID, "Pie", []string{tag.ID},
		[]model.IngredientAmount{{IngredientID: flour.ID, Amount: 1}})

	empty, err := db.CartIsEmpty(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("CartIsEmpty() error = %v", err)
	}
	if !empty {
		t.Error("CartIsEmpty() = false for a fresh user")
	}

	if err := db.AddToCart(context.Background(), user.ID, recipe.ID); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	empty, err = db.CartIsEmpty(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("CartIsEmpty() error = %v", err)
	}
	if empty {
		t.Error("CartIsEmpty() = true after AddToCart")
	}
}
