package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func seedProject(t *testing.T, s EntityStore, id string) *Project {
	t.Helper()
	p := &Project{ID: id, Name: "proj-" + id}
	if err := s.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	return p
}

func TestMemoryStoreProjectCRUD(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	p := seedProject(t, s, "p1")
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("create should stamp timestamps")
	}

	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != "proj-p1" {
		t.Errorf("Name = %q", got.Name)
	}

	got.Name = "renamed"
	got.Icon = "🐜"
	if err := s.UpdateProject(ctx, got); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}
	got2, _ := s.GetProject(ctx, "p1")
	if got2.Name != "renamed" || got2.Icon != "🐜" {
		t.Errorf("update not applied: %+v", got2)
	}
	if !got2.CreatedAt.Equal(got.CreatedAt) {
		t.Error("update must preserve createdAt")
	}

	if err := s.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := s.GetProject(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject after delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreActorCRUD(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	seedProject(t, s, "p1")

	a := &Actor{
		ID:        "a1",
		ProjectID: "p1",
		Name:      "Alice",
		Position:  Position{X: 100, Y: 200},
		Color:     "#ff0000",
		Size:      "3",
		Groups:    []string{"g1"},
		CreatedBy: "u1",
	}
	if err := s.CreateActor(ctx, a); err != nil {
		t.Fatalf("CreateActor failed: %v", err)
	}

	got, err := s.GetActor(ctx, "a1")
	if err != nil {
		t.Fatalf("GetActor failed: %v", err)
	}
	if got.Name != "Alice" || got.Position.X != 100 || got.Size != "3" {
		t.Errorf("actor = %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Name = "mutated"
	got.Groups[0] = "mutated"
	fresh, _ := s.GetActor(ctx, "a1")
	if fresh.Name != "Alice" || fresh.Groups[0] != "g1" {
		t.Error("store returned an aliased record")
	}

	if err := s.UpdateActorPosition(ctx, "a1", Position{X: 300, Y: 400}); err != nil {
		t.Fatalf("UpdateActorPosition failed: %v", err)
	}
	moved, _ := s.GetActor(ctx, "a1")
	if moved.Position.X != 300 || moved.Position.Y != 400 {
		t.Errorf("position = %+v, want (300,400)", moved.Position)
	}
	if !moved.UpdatedAt.After(a.UpdatedAt) && !moved.UpdatedAt.Equal(a.UpdatedAt) {
		t.Error("position update should advance updatedAt")
	}

	if err := s.DeleteActor(ctx, "a1"); err != nil {
		t.Fatalf("DeleteActor failed: %v", err)
	}
	if err := s.UpdateActorPosition(ctx, "a1", Position{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateActorPosition on deleted actor = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreActorRequiresProject(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	err := s.CreateActor(context.Background(), &Actor{ID: "a1", ProjectID: "missing", Name: "x"})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("CreateActor = %v, want ErrProjectNotFound", err)
	}
}

func TestMemoryStoreListFiltersByProject(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	seedProject(t, s, "p1")
	seedProject(t, s, "p2")

	for i, pid := range []string{"p1", "p1", "p2"} {
		a := &Actor{ID: string(rune('a' + i)), ProjectID: pid, Name: "n", CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond)}
		if err := s.CreateActor(ctx, a); err != nil {
			t.Fatalf("CreateActor failed: %v", err)
		}
	}

	p1Actors, err := s.ListActors(ctx, "p1")
	if err != nil {
		t.Fatalf("ListActors failed: %v", err)
	}
	if len(p1Actors) != 2 {
		t.Errorf("len(p1 actors) = %d, want 2", len(p1Actors))
	}
	p2Actors, _ := s.ListActors(ctx, "p2")
	if len(p2Actors) != 1 {
		t.Errorf("len(p2 actors) = %d, want 1", len(p2Actors))
	}
}

func TestMemoryStoreDeleteProjectCascades(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	seedProject(t, s, "p1")
	if err := s.CreateActor(ctx, &Actor{ID: "a1", ProjectID: "p1", Name: "n"}); err != nil {
		t.Fatalf("CreateActor failed: %v", err)
	}
	if err := s.CreateRelation(ctx, &Relation{ID: "r1", ProjectID: "p1", SourceID: "a1", TargetID: "a1"}); err != nil {
		t.Fatalf("CreateRelation failed: %v", err)
	}
	if err := s.CreateStar(ctx, &Star{ID: "s1", ProjectID: "p1"}); err != nil {
		t.Fatalf("CreateStar failed: %v", err)
	}

	if err := s.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if _, err := s.GetActor(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Error("actors should be removed with their project")
	}
	rels, _ := s.ListRelations(ctx, "p1")
	if len(rels) != 0 {
		t.Error("relations should be removed with their project")
	}
	stars, _ := s.ListStars(ctx, "p1")
	if len(stars) != 0 {
		t.Error("stars should be removed with their project")
	}
}

func TestMemoryStoreRelationCRUD(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	seedProject(t, s, "p1")
	r := &Relation{ID: "r1", ProjectID: "p1", SourceID: "a1", TargetID: "a2", Width: 2, EndStyle: "arrow"}
	if err := s.CreateRelation(ctx, r); err != nil {
		t.Fatalf("CreateRelation failed: %v", err)
	}

	r.Color = "#00ff00"
	if err := s.UpdateRelation(ctx, r); err != nil {
		t.Fatalf("UpdateRelation failed: %v", err)
	}

	rels, _ := s.ListRelations(ctx, "p1")
	if len(rels) != 1 || rels[0].Color != "#00ff00" || rels[0].EndStyle != "arrow" {
		t.Errorf("relations = %+v", rels)
	}

	if err := s.DeleteRelation(ctx, "r1"); err != nil {
		t.Fatalf("DeleteRelation failed: %v", err)
	}
	if err := s.DeleteRelation(ctx, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	ctx := context.Background()
	if err := s.CreateProject(ctx, &Project{ID: "p1"}); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateProject on closed store = %v, want ErrClosed", err)
	}
	if _, err := s.ListProjects(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("ListProjects on closed store = %v, want ErrClosed", err)
	}
}
