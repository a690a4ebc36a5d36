package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/katsudaichi/ant-app/pkg/store"
)

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	if err := st.CreateProject(ctx, &store.Project{ID: "p1", Name: "Demo"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := st.CreateActor(ctx, &store.Actor{ID: "a1", ProjectID: "p1", Name: "Hero", Position: store.Position{X: 1, Y: 2}}); err != nil {
		t.Fatalf("CreateActor: %v", err)
	}
	if err := st.CreateRelation(ctx, &store.Relation{ID: "r1", ProjectID: "p1", SourceID: "a1", TargetID: "a1"}); err != nil {
		t.Fatalf("CreateRelation: %v", err)
	}
	if err := st.CreateStar(ctx, &store.Star{ID: "s1", ProjectID: "p1"}); err != nil {
		t.Fatalf("CreateStar: %v", err)
	}
	return st
}

func TestBuild(t *testing.T) {
	st := seedStore(t)

	snap, err := Build(context.Background(), st, "p1")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if snap.Project.Name != "Demo" {
		t.Errorf("project = %+v", snap.Project)
	}
	if len(snap.Actors) != 1 || snap.Actors[0].Name != "Hero" {
		t.Errorf("actors = %+v", snap.Actors)
	}
	if len(snap.Relations) != 1 {
		t.Errorf("relations = %+v", snap.Relations)
	}
	if len(snap.Stars) != 1 {
		t.Errorf("stars = %+v", snap.Stars)
	}
	if snap.ExportedAt.IsZero() {
		t.Error("ExportedAt should be set")
	}
}

func TestBuildMissingProject(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	_, err := Build(context.Background(), st, "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Build error = %v, want ErrNotFound", err)
	}
}

func TestDiskWriter(t *testing.T) {
	st := seedStore(t)
	snap, err := Build(context.Background(), st, "p1")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	w, err := NewDiskWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskWriter failed: %v", err)
	}

	path, err := w.Write(context.Background(), snap)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.HasSuffix(path, ".json") || !strings.Contains(path, "p1-") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var got ProjectSnapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Project.ID != "p1" || len(got.Actors) != 1 {
		t.Errorf("snapshot round trip = %+v", got)
	}
}
