package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akozlova/foodgram/internal/apperror"
)

const testBaseURL = "http://test.local"

func newShortLinkEnv() (*ShortLinkService, *fakeRecipeRepo, *fakeLinkRepo) {
	recipes := newFakeRecipeRepo()
	links := newFakeLinkRepo()
	svc := NewShortLinkService(links, recipes, testBaseURL, testLogger())
	return svc, recipes, links
}

func TestGetOrCreate_MintsShortURL(t *testing.T) {
	svc, recipes, _ := newShortLinkEnv()
	recipe := recipes.add("Pie", "user-1")

	short, err := svc.GetOrCreate(context.Background(), recipe.ID)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	prefix := testBaseURL + "/s/"
	if !strings.HasPrefix(short, prefix) {
		t.Fatalf("short URL = %q, want prefix %q", short, prefix)
	}
	token := strings.TrimPrefix(short, prefix)
	if len(token) != shortTokenLength {
		t.Errorf("token %q length = %d, want %d", token, len(token), shortTokenLength)
	}
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	svc, recipes, _ := newShortLinkEnv()
	recipe := recipes.add("Pie", "user-1")

	first, err := svc.GetOrCreate(context.Background(), recipe.ID)
	if err != nil {
		t.Fatalf("first GetOrCreate() error = %v", err)
	}
	second, err := svc.GetOrCreate(context.Background(), recipe.ID)
	if err != nil {
		t.Fatalf("second GetOrCreate() error = %v", err)
	}
	if first != second {
		t.Errorf("repeated GetOrCreate() minted a new URL: %q then %q", first, second)
	}
}

func TestGetOrCreate_DistinctRecipesGetDistinctTokens(t *testing.T) {
	svc, recipes, _ := newShortLinkEnv()
	pie := recipes.add("Pie", "user-1")
	soup := recipes.add("Soup", "user-1")

	pieURL, err := svc.GetOrCreate(context.Background(), pie.ID)
	if err != nil {
		t.Fatalf("GetOrCreate(pie) error = %v", err)
	}
	soupURL, err := svc.GetOrCreate(context.Background(), soup.ID)
	if err != nil {
		t.Fatalf("GetOrCreate(soup) error = %v", err)
	}
	if pieURL == soupURL {
		t.Errorf("two recipes share the short URL %q", pieURL)
	}
}

func TestGetOrCreate_UnknownRecipe(t *testing.T) {
	svc, _, _ := newShortLinkEnv()

	_, err := svc.GetOrCreate(context.Background(), "no-such-recipe")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetOrCreate() unknown recipe error = %v, want ErrNotFound", err)
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	svc, recipes, _ := newShortLinkEnv()
	recipe := recipes.add("Pie", "user-1")

	short, err := svc.GetOrCreate(context.Background(), recipe.ID)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	token := strings.TrimPrefix(short, testBaseURL+"/s/")

	target, err := svc.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := testBaseURL + "/recipes/" + recipe.ID + "/"
	if target != want {
		t.Errorf("Resolve() = %q, want %q", target, want)
	}
}

func TestResolve_UnknownToken(t *testing.T) {
	svc, _, _ := newShortLinkEnv()

	_, err := svc.Resolve(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Resolve() unknown token error = %v, want ErrNotFound", err)
	}
}
