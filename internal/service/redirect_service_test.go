package service

import (
	"errors"
	"testing"

	"github.com/sofahub/sofahub-api/internal/repository"
)

func TestNormalizeRedirectPath(t *testing.T) {
	cases := map[string]string{
		"/rooms/living-room":  "/rooms/living-room",
		"rooms/living-room":   "/rooms/living-room",
		"/rooms/living-room/": "/rooms/living-room",
		"  /sale  ":           "/sale",
		"/":                   "/",
		"":                    "",
	}
	for in, want := range cases {
		if got := normalizeRedirectPath(in); got != want {
			t.Fatalf("normalizeRedirectPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRedirectUpsertAndResolve(t *testing.T) {
	db := newServiceTestDB(t, "redirect_upsert")
	svc := NewRedirectService(repository.NewRedirectRepository(db))

	if _, err := svc.Upsert("/sofas/", "/products?type=sofas", true); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Trailing slashes and missing leading slash resolve to the same row.
	redirect, err := svc.Resolve("sofas")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if redirect.NewPath != "/products?type=sofas" || !redirect.IsPermanent {
		t.Fatalf("unexpected redirect: %+v", redirect)
	}

	// Re-pointing the same old path replaces the target in place.
	if _, err := svc.Upsert("/sofas", "/products?type=sofas-and-sectionals", false); err != nil {
		t.Fatalf("re-point failed: %v", err)
	}
	redirect, err = svc.Resolve("/sofas")
	if err != nil {
		t.Fatalf("resolve after re-point failed: %v", err)
	}
	if redirect.NewPath != "/products?type=sofas-and-sectionals" || redirect.IsPermanent {
		t.Fatalf("expected replaced target, got %+v", redirect)
	}

	if _, err := svc.Resolve("/never-existed"); !errors.Is(err, ErrRedirectNotFound) {
		t.Fatalf("expected redirect not found, got: %v", err)
	}
}

func TestRedirectUpsertRejectsInvalidPaths(t *testing.T) {
	db := newServiceTestDB(t, "redirect_invalid")
	svc := NewRedirectService(repository.NewRedirectRepository(db))

	if _, err := svc.Upsert("", "/somewhere", true); !errors.Is(err, ErrRedirectInvalid) {
		t.Fatalf("expected invalid for empty old path, got: %v", err)
	}
	if _, err := svc.Upsert("/loop", "/loop", true); !errors.Is(err, ErrRedirectInvalid) {
		t.Fatalf("expected invalid for self redirect, got: %v", err)
	}
}
