package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/colletr/colletr/backend/internal/models"
)

func TestDeleteCategoryReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cat, err := s.AddCategory(ctx, "Arcade")
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	mustCreateCollection(t, s, "fliperama", models.Category("Arcade"))

	found, err := s.DeleteCategory(ctx, cat.ID)
	if !found {
		t.Fatal("DeleteCategory did not resolve the tag")
	}
	var refErr *ReferentialIntegrityError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want ReferentialIntegrityError", err)
	}
	if refErr.References != 1 {
		t.Errorf("References = %d, want 1", refErr.References)
	}

	// Tag set unchanged.
	if got := s.Categories(); len(got) != 1 || got[0].ID != cat.ID {
		t.Errorf("Categories = %+v, want the original tag intact", got)
	}
}

func TestDeleteUnreferencedCategory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	keep, _ := s.AddCategory(ctx, "Keep")
	remove, _ := s.AddCategory(ctx, "Remove")

	found, err := s.DeleteCategory(ctx, remove.ID)
	if err != nil || !found {
		t.Fatalf("DeleteCategory: found=%v err=%v", found, err)
	}

	got := s.Categories()
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Errorf("Categories = %+v, want only %q", got, keep.Name)
	}
}

func TestRenameCategoryCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cat, _ := s.AddCategory(ctx, "Handhelds Raros")
	affected := mustCreateCollection(t, s, "a", models.Category("Handhelds Raros"))
	untouched := mustCreateCollection(t, s, "b", models.CategoryGames)

	ok, err := s.RenameCategory(ctx, cat.ID, "Portáteis")
	if err != nil || !ok {
		t.Fatalf("RenameCategory: ok=%v err=%v", ok, err)
	}

	col, _ := s.CollectionByID(affected.ID)
	if col.Category != models.Category("Portáteis") {
		t.Errorf("cascade missed: category = %q", col.Category)
	}
	col, _ = s.CollectionByID(untouched.ID)
	if col.Category != models.CategoryGames {
		t.Errorf("cascade hit an unrelated collection: %q", col.Category)
	}

	got := s.Categories()
	if got[0].Name != "Portáteis" {
		t.Errorf("tag name = %q, want renamed", got[0].Name)
	}
}

func TestRenameUnknownCategory(t *testing.T) {
	ok, err := newTestStore(t).RenameCategory(context.Background(), "nope", "x")
	if err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}
	if ok {
		t.Error("RenameCategory resolved an unknown tag")
	}
}
