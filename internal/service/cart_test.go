package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
)

// newCartEnv builds a RecipeService for join/cart tests. These paths never
// touch the image store, so it stays nil.
func newCartEnv() (*RecipeService, *fakeUserRepo, *fakeRecipeRepo, *fakeJoinRepo) {
	users := newFakeUserRepo()
	recipes := newFakeRecipeRepo()
	joins := newFakeJoinRepo()
	catalog := newFakeCatalogRepo()
	svc := NewRecipeService(recipes, joins, catalog, catalog, users, newFakeSubRepo(users), nil, testLogger())
	return svc, users, recipes, joins
}

// =========================================================================
// FAVORITE / CART TOGGLE TESTS
// =========================================================================

// An add against an unknown recipe is a bad request, not a missing resource:
// the error must be ErrValidation, never ErrNotFound.
func TestFavorite_UnknownRecipe(t *testing.T) {
	svc, _, _, _ := newCartEnv()

	_, err := svc.Favorite(context.Background(), "user-1", "no-such-recipe")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Favorite() unknown recipe error = %v, want ErrValidation", err)
	}
	if errors.Is(err, apperror.ErrNotFound) {
		t.Error("Favorite() unknown recipe must not surface as NotFound")
	}
}

func TestFavorite_ReturnsSummary(t *testing.T) {
	svc, users, recipes, _ := newCartEnv()
	author := &model.User{Email: "a@example.com", Username: "a", FirstName: "A", LastName: "B"}
	if err := users.CreateUser(context.Background(), author); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	recipe := recipes.add("Pie", author.ID)

	summary, err := svc.Favorite(context.Background(), author.ID, recipe.ID)
	if err != nil {
		t.Fatalf("Favorite() error = %v", err)
	}
	if summary.ID != recipe.ID || summary.Name != "Pie" {
		t.Errorf("summary = %+v, want the favorited recipe", summary)
	}
	if summary.CookingTime != recipe.CookingTime {
		t.Errorf("CookingTime = %d, want %d", summary.CookingTime, recipe.CookingTime)
	}
}

func TestFavorite_Duplicate(t *testing.T) {
	svc, _, recipes, _ := newCartEnv()
	recipe := recipes.add("Pie", "user-1")

	if _, err := svc.Favorite(context.Background(), "user-1", recipe.ID); err != nil {
		t.Fatalf("first Favorite() error = %v", err)
	}
	_, err := svc.Favorite(context.Background(), "user-1", recipe.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Favorite() error = %v, want ErrConflict", err)
	}
}

func TestAddToCart_Duplicate(t *testing.T) {
	svc, _, recipes, _ := newCartEnv()
	recipe := recipes.add("Pie", "user-1")

	if _, err := svc.AddToCart(context.Background(), "user-1", recipe.ID); err != nil {
		t.Fatalf("first AddToCart() error = %v", err)
	}
	_, err := svc.AddToCart(context.Background(), "user-1", recipe.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second AddToCart() error = %v, want ErrConflict", err)
	}
}

// A store failure during the recipe lookup is a server fault and must keep
// its identity — never be rewritten into a client (validation) error.
func TestFavorite_StoreFailurePropagates(t *testing.T) {
	svc, _, recipes, _ := newCartEnv()
	recipes.add("Pie", "user-1")
	storeErr := errors.New("sqlite: database is locked")
	recipes.getByIDErr = storeErr

	_, err := svc.Favorite(context.Background(), "user-1", "recipe-1")
	if !errors.Is(err, storeErr) {
		t.Fatalf("Favorite() error = %v, want the store failure to propagate", err)
	}
	if errors.Is(err, apperror.ErrValidation) {
		t.Error("store failure surfaced as a validation (client) error")
	}
}

// Removing a pair that was never added is the client undoing something it
// never did — a bad request, not a missing resource.
func TestUnfavorite_Absent(t *testing.T) {
	svc, _, recipes, _ := newCartEnv()
	recipe := recipes.add("Pie", "user-1")

	err := svc.Unfavorite(context.Background(), "user-1", recipe.ID)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Unfavorite() absent pair error = %v, want ErrValidation", err)
	}
	if errors.Is(err, apperror.ErrNotFound) {
		t.Error("Unfavorite() absent pair must not surface as NotFound")
	}
}

func TestRemoveFromCart_Absent(t *testing.T) {
	svc, _, recipes, _ := newCartEnv()
	recipe := recipes.add("Pie", "user-1")

	err := svc.RemoveFromCart(context.Background(), "user-1", recipe.ID)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("RemoveFromCart() absent pair error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// SHOPPING LIST TESTS
// =========================================================================

func TestShoppingList_EmptyCart(t *testing.T) {
	svc, users, _, _ := newCartEnv()
	user := &model.User{Email: "s@example.com", Username: "shopper", FirstName: "Test", LastName: "User"}
	if err := users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, _, err := svc.ShoppingList(context.Background(), user.ID)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ShoppingList() on empty cart error = %v, want ErrValidation", err)
	}
}

func TestShoppingList_Format(t *testing.T) {
	svc, users, recipes, joins := newCartEnv()
	user := &model.User{Email: "s@example.com", Username: "shopper", FirstName: "Test", LastName: "User"}
	if err := users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	recipe := recipes.add("Pie", user.ID)
	if _, err := svc.AddToCart(context.Background(), user.ID, recipe.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	// What the aggregation query would return for this cart: already
	// grouped by (name, unit) and sorted by name.
	joins.cartItems = []model.CartItem{
		{Name: "flour", MeasurementUnit: "g", Amount: 500},
		{Name: "milk", MeasurementUnit: "ml", Amount: 200},
	}

	filename, content, err := svc.ShoppingList(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ShoppingList() error = %v", err)
	}

	if filename != "shopper_shopping_list.txt" {
		t.Errorf("filename = %q, want %q", filename, "shopper_shopping_list.txt")
	}

	text := string(content)
	now := time.Now()
	wantLines := []string{
		"Shopping list for: Test User",
		"Date: " + now.Format("02-01-2006"),
		"- flour (g) - 500",
		"- milk (ml) - 200",
		fmt.Sprintf("Foodgram (%d)", now.Year()),
	}
	for _, want := range wantLines {
		if !strings.Contains(text, want) {
			t.Errorf("shopping list missing line %q\ngot:\n%s", want, text)
		}
	}

	// Each grouped line appears exactly once
	if strings.Count(text, "- flour") != 1 {
		t.Errorf("flour rendered %d times, want 1", strings.Count(text, "- flour"))
	}
}
