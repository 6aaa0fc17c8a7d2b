package model

import "time"

// Recipe is the core entity. AuthorID is empty when the author account was
// removed — recipes outlive their authors (the row is kept, the reference is
// nulled).
//
// Image holds a relative media path; CreatedAt is the ordering key for all
// recipe listings (newest first).
type Recipe struct {
	ID          string    `json:"id"           db:"id"`
	AuthorID    string    `json:"-"            db:"author_id"`
	Name        string    `json:"name"         db:"name"`
	Image       string    `json:"image"        db:"image"`
	Text        string    `json:"text"         db:"text"`
	CookingTime int       `json:"cooking_time" db:"cooking_time"`
	CreatedAt   time.Time `json:"-"            db:"created_at"`
}

// Tag categorises recipes. Name and slug are both unique.
type Tag struct {
	ID   string `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Ingredient is a catalogue entry. The same name may appear several times
// with different measurement units ("milk, ml" and "milk, g" are two rows),
// so (name, unit) is deliberately NOT unique.
type Ingredient struct {
	ID              string `json:"id"               db:"id"`
	Name            string `json:"name"             db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
}

// RecipeIngredient is one line item of a recipe's ingredient list, already
// joined to the ingredient catalogue for output. Amount is an integer >= 1.
type RecipeIngredient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// IngredientAmount is the write-side shape of a line item: just the
// ingredient reference and the quantity. The full RecipeIngredient is what
// comes back out.
type IngredientAmount struct {
	IngredientID string `json:"id"`
	Amount       int    `json:"amount"`
}

// RecipeDetail is the single source of truth for "what a recipe looks like"
// in API responses. Create, update, and detail-fetch all return this shape,
// never an echo of the write payload.
//
// IsFavorited and IsInShoppingCart are computed per request relative to the
// requesting identity and are always false for anonymous callers.
type RecipeDetail struct {
	ID               string             `json:"id"`
	Tags             []Tag              `json:"tags"`
	Author           UserProfile        `json:"author"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// RecipeSummary is the short representation returned by the favorite and
// shopping-cart toggles and embedded in author profiles.
type RecipeSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// ShortLink maps an opaque token to a recipe's canonical URL. Created lazily
// on the first get-link request and reused on every subsequent one.
type ShortLink struct {
	Token       string `db:"token"`
	OriginalURL string `db:"original_url"`
}

// CartItem is one group of the shopping-list aggregation: all line items in
// the user's cart with the same (ingredient name, measurement unit), summed.
type CartItem struct {
	Name            string
	MeasurementUnit string
	Amount          int
}
