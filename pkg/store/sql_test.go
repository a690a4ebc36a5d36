package store

import (
	"context"
	"errors"
	"testing"
)

func TestSQLStoreRebind(t *testing.T) {
	pg := NewSQLStore(nil)
	lite := NewSQLStore(nil, WithSQLDialect(DialectSQLite))

	query := `UPDATE actors SET position_x = ?, position_y = ?, updated_at = ? WHERE id = ?`

	want := `UPDATE actors SET position_x = $1, position_y = $2, updated_at = $3 WHERE id = $4`
	if got := pg.rebind(query); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
	if got := lite.rebind(query); got != query {
		t.Errorf("sqlite rebind = %q, want unchanged", got)
	}
}

func TestSQLStoreRebindNoPlaceholders(t *testing.T) {
	pg := NewSQLStore(nil)
	query := `SELECT id FROM projects ORDER BY created_at`
	if got := pg.rebind(query); got != query {
		t.Errorf("rebind = %q, want unchanged", got)
	}
}

func TestRedisStoreKeys(t *testing.T) {
	s := NewRedisStore(nil)
	if got := s.key("actor", "a1"); got != "antapp:actor:a1" {
		t.Errorf("key = %q", got)
	}
	if got := s.key("project", "p1", "actors"); got != "antapp:project:p1:actors" {
		t.Errorf("key = %q", got)
	}

	custom := NewRedisStore(nil, WithRedisKeyPrefix("test"))
	if got := custom.key("projects"); got != "test:projects" {
		t.Errorf("key = %q", got)
	}
}

// The closed flag is checked before the backend is touched, so a closed
// store rejects every operation even with no connection behind it.
func TestSQLStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewSQLStore(nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := s.CreateProject(ctx, &Project{ID: "p1", Name: "x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateProject after close = %v, want ErrClosed", err)
	}
	if _, err := s.GetProject(ctx, "p1"); !errors.Is(err, ErrClosed) {
		t.Errorf("GetProject after close = %v, want ErrClosed", err)
	}
	if err := s.UpdateActorPosition(ctx, "a1", Position{X: 1, Y: 2}); !errors.Is(err, ErrClosed) {
		t.Errorf("UpdateActorPosition after close = %v, want ErrClosed", err)
	}
}

func TestRedisStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(nil)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := s.ListActors(ctx, "p1"); !errors.Is(err, ErrClosed) {
		t.Errorf("ListActors after close = %v, want ErrClosed", err)
	}
	if err := s.DeleteStar(ctx, "s1"); !errors.Is(err, ErrClosed) {
		t.Errorf("DeleteStar after close = %v, want ErrClosed", err)
	}
}
