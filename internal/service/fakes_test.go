package service

// In-memory fakes for the repository interfaces. Hand-written fakes (rather
// than a mock framework) keep the tests dependency-free and readable — you
// can see exactly what each fake does. Only the behavior the services
// actually rely on is simulated; everything else is a straightforward map
// lookup.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/akozlova/foodgram/internal/apperror"
	"github.com/akozlova/foodgram/internal/model"
	"github.com/akozlova/foodgram/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// =========================================================================
// fakeUserRepo
// =========================================================================

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) add(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
	}
	if err := f.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("fake CreateUser(%s): %v", username, err)
	}
	return u
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return apperror.Conflict("a user with this email or username already exists")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	return nil
}

// =========================================================================
// fakeSubRepo
// =========================================================================

type fakeSubRepo struct {
	// followed[userID] holds the author IDs in subscription order
	followed map[string][]string
	users    *fakeUserRepo
}

func newFakeSubRepo(users *fakeUserRepo) *fakeSubRepo {
	return &fakeSubRepo{followed: make(map[string][]string), users: users}
}

func (f *fakeSubRepo) Subscribe(ctx context.Context, userID, authorID string) error {
	for _, id := range f.followed[userID] {
		if id == authorID {
			return apperror.Conflict("already subscribed to this author")
		}
	}
	f.followed[userID] = append(f.followed[userID], authorID)
	return nil
}

func (f *fakeSubRepo) Unsubscribe(ctx context.Context, userID, authorID string) error {
	ids := f.followed[userID]
	for i, id := range ids {
		if id == authorID {
			f.followed[userID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("subscription", authorID)
}

func (f *fakeSubRepo) IsSubscribed(ctx context.Context, userID, authorID string) (bool, error) {
	for _, id := range f.followed[userID] {
		if id == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubRepo) ListFollowed(ctx context.Context, userID string, opts repository.ListOptions) ([]model.User, error) {
	ids := f.followed[userID]
	// most recent first
	var out []model.User
	for i := len(ids) - 1; i >= 0; i-- {
		if u, ok := f.users.users[ids[i]]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// =========================================================================
// fakeRecipeRepo
// =========================================================================

type fakeRecipeRepo struct {
	recipes map[string]*model.Recipe
	nextID  int

	// getByIDErr, when set, makes GetRecipeByID fail with it — simulates a
	// data-store failure rather than a missing row.
	getByIDErr error
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: make(map[string]*model.Recipe)}
}

func (f *fakeRecipeRepo) add(name, authorID string) *model.Recipe {
	f.nextID++
	r := &model.Recipe{
		ID:          fmt.Sprintf("recipe-%d", f.nextID),
		AuthorID:    authorID,
		Name:        name,
		Image:       "recipe_images/fake.png",
		Text:        "text",
		CookingTime: 10,
	}
	f.recipes[r.ID] = r
	return r
}

func (f *fakeRecipeRepo) CreateRecipe(ctx context.Context, write repository.RecipeWrite) error {
	f.nextID++
	write.Recipe.ID = fmt.Sprintf("recipe-%d", f.nextID)
	copied := *write.Recipe
	f.recipes[copied.ID] = &copied
	return nil
}

func (f *fakeRecipeRepo) UpdateRecipe(ctx context.Context, write repository.RecipeWrite) error {
	if _, ok := f.recipes[write.Recipe.ID]; !ok {
		return apperror.NotFound("recipe", write.Recipe.ID)
	}
	copied := *write.Recipe
	f.recipes[copied.ID] = &copied
	return nil
}

func (f *fakeRecipeRepo) GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	r, ok := f.recipes[id]
	if !ok {
		return nil, apperror.NotFound("recipe", id)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRecipeRepo) ListRecipes(ctx context.Context, filter repository.RecipeFilter, opts repository.ListOptions) ([]model.Recipe, error) {
	var out []model.Recipe
	for _, r := range f.recipes {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRecipeRepo) DeleteRecipe(ctx context.Context, id string) error {
	if _, ok := f.recipes[id]; !ok {
		return apperror.NotFound("recipe", id)
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipeRepo) CountRecipesByAuthor(ctx context.Context, authorID string) (int, error) {
	count := 0
	for _, r := range f.recipes {
		if r.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRecipeRepo) ListRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]model.Recipe, error) {
	var out []model.Recipe
	for _, r := range f.recipes {
		if r.AuthorID == authorID {
			out = append(out, *r)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRecipeRepo) RecipeIngredients(ctx context.Context, recipeID string) ([]model.RecipeIngredient, error) {
	return nil, nil
}

func (f *fakeRecipeRepo) RecipeTags(ctx context.Context, recipeID string) ([]model.Tag, error) {
	return nil, nil
}

// =========================================================================
// fakeCatalogRepo — implements both TagRepository and IngredientRepository
// =========================================================================

type fakeCatalogRepo struct {
	tags        map[string]model.Tag
	ingredients map[string]model.Ingredient
	nextID      int
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		tags:        make(map[string]model.Tag),
		ingredients: make(map[string]model.Ingredient),
	}
}

func (f *fakeCatalogRepo) addTag(name, slug string) model.Tag {
	f.nextID++
	t := model.Tag{ID: fmt.Sprintf("tag-%d", f.nextID), Name: name, Slug: slug}
	f.tags[t.ID] = t
	return t
}

func (f *fakeCatalogRepo) addIngredient(name, unit string) model.Ingredient {
	f.nextID++
	i := model.Ingredient{ID: fmt.Sprintf("ing-%d", f.nextID), Name: name, MeasurementUnit: unit}
	f.ingredients[i.ID] = i
	return i
}

func (f *fakeCatalogRepo) CreateTag(ctx context.Context, tag *model.Tag) error {
	f.nextID++
	tag.ID = fmt.Sprintf("tag-%d", f.nextID)
	f.tags[tag.ID] = *tag
	return nil
}

func (f *fakeCatalogRepo) GetTagByID(ctx context.Context, id string) (*model.Tag, error) {
	t, ok := f.tags[id]
	if !ok {
		return nil, apperror.NotFound("tag", id)
	}
	return &t, nil
}

func (f *fakeCatalogRepo) ListTags(ctx context.Context) ([]model.Tag, error) {
	var out []model.Tag
	for _, t := range f.tags {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetTagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error) {
	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		t, ok := f.tags[id]
		if !ok {
			return nil, apperror.NotFound("tag", id)
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeCatalogRepo) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	f.nextID++
	ingredient.ID = fmt.Sprintf("ing-%d", f.nextID)
	f.ingredients[ingredient.ID] = *ingredient
	return nil
}

func (f *fakeCatalogRepo) GetIngredientByID(ctx context.Context, id string) (*model.Ingredient, error) {
	i, ok := f.ingredients[id]
	if !ok {
		return nil, apperror.NotFound("ingredient", id)
	}
	return &i, nil
}

func (f *fakeCatalogRepo) ListIngredients(ctx context.Context, namePrefix string) ([]model.Ingredient, error) {
	var out []model.Ingredient
	for _, i := range f.ingredients {
		out = append(out, i)
	}
	return out, nil
}

// =========================================================================
// fakeJoinRepo
// =========================================================================

type fakeJoinRepo struct {
	favorites map[string]bool // key "user|recipe"
	cart      map[string]bool
	cartItems []model.CartItem // what CartItems returns, preset by the test
}

func newFakeJoinRepo() *fakeJoinRepo {
	return &fakeJoinRepo{
		favorites: make(map[string]bool),
		cart:      make(map[string]bool),
	}
}

func joinKey(userID, recipeID string) string { return userID + "|" + recipeID }

func (f *fakeJoinRepo) AddFavorite(ctx context.Context, userID, recipeID string) error {
	k := joinKey(userID, recipeID)
	if f.favorites[k] {
		return apperror.Conflict("recipe already favorited")
	}
	f.favorites[k] = true
	return nil
}

func (f *fakeJoinRepo) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	k := joinKey(userID, recipeID)
	if !f.favorites[k] {
		return apperror.NotFound("favorites entry", recipeID)
	}
	delete(f.favorites, k)
	return nil
}

func (f *fakeJoinRepo) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	return f.favorites[joinKey(userID, recipeID)], nil
}

func (f *fakeJoinRepo) AddToCart(ctx context.Context, userID, recipeID string) error {
	k := joinKey(userID, recipeID)
	if f.cart[k] {
		return apperror.Conflict("recipe already in shopping cart")
	}
	f.cart[k] = true
	return nil
}

func (f *fakeJoinRepo) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	k := joinKey(userID, recipeID)
	if !f.cart[k] {
		return apperror.NotFound("shopping_carts entry", recipeID)
	}
	delete(f.cart, k)
	return nil
}

func (f *fakeJoinRepo) IsInCart(ctx context.Context, userID, recipeID string) (bool, error) {
	return f.cart[joinKey(userID, recipeID)], nil
}

func (f *fakeJoinRepo) CartItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	return f.cartItems, nil
}

func (f *fakeJoinRepo) CartIsEmpty(ctx context.Context, userID string) (bool, error) {
	for k := range f.cart {
		if len(k) > len(userID) && k[:len(userID)] == userID && k[len(userID)] == '|' {
			return false, nil
		}
	}
	return true, nil
}

// =========================================================================
// fakeLinkRepo
// =========================================================================

type fakeLinkRepo struct {
	byToken map[string]*model.ShortLink
	byURL   map[string]*model.ShortLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{
		byToken: make(map[string]*model.ShortLink),
		byURL:   make(map[string]*model.ShortLink),
	}
}

func (f *fakeLinkRepo) GetShortLinkByURL(ctx context.Context, originalURL string) (*model.ShortLink, error) {
	link, ok := f.byURL[originalURL]
	if !ok {
		return nil, apperror.NotFound("short link", originalURL)
	}
	return link, nil
}

func (f *fakeLinkRepo) GetShortLinkByToken(ctx context.Context, token string) (*model.ShortLink, error) {
	link, ok := f.byToken[token]
	if !ok {
		return nil, apperror.NotFound("short link", token)
	}
	return link, nil
}

func (f *fakeLinkRepo) CreateShortLink(ctx context.Context, link *model.ShortLink) error {
	if _, ok := f.byToken[link.Token]; ok {
		return apperror.Conflict("short link already exists")
	}
	if _, ok := f.byURL[link.OriginalURL]; ok {
		return apperror.Conflict("short link already exists")
	}
	copied := *link
	f.byToken[link.Token] = &copied
	f.byURL[link.OriginalURL] = &copied
	return nil
}
