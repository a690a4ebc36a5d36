// Package snapshot builds and persists full-project JSON exports: the
// project record plus every actor, relation, group, comment, and star.
// Snapshots back the export endpoint and the optional shutdown dump.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/katsudaichi/ant-app/pkg/store"
)

// ProjectSnapshot is a complete, self-contained export of one project.
type ProjectSnapshot struct {
	Project    *store.Project    `json:"project"`
	Actors     []*store.Actor    `json:"actors"`
	Relations  []*store.Relation `json:"relations"`
	Groups     []*store.Group    `json:"groups"`
	Comments   []*store.Comment  `json:"comments"`
	Stars      []*store.Star     `json:"stars"`
	ExportedAt time.Time         `json:"exportedAt"`
}

// Writer persists a snapshot and returns a backend-specific location
// (a file path, an object key).
type Writer interface {
	Write(ctx context.Context, snap *ProjectSnapshot) (location string, err error)
}

// Build assembles a snapshot of the project from the entity store.
func Build(ctx context.Context, st store.EntityStore, projectID string) (*ProjectSnapshot, error) {
	project, err := st.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load project: %w", err)
	}

	snap := &ProjectSnapshot{
		Project:    project,
		ExportedAt: time.Now().UTC(),
	}
	if snap.Actors, err = st.ListActors(ctx, projectID); err != nil {
		return nil, fmt.Errorf("snapshot: load actors: %w", err)
	}
	if snap.Relations, err = st.ListRelations(ctx, projectID); err != nil {
		return nil, fmt.Errorf("snapshot: load relations: %w", err)
	}
	if snap.Groups, err = st.ListGroups(ctx, projectID); err != nil {
		return nil, fmt.Errorf("snapshot: load groups: %w", err)
	}
	if snap.Comments, err = st.ListComments(ctx, projectID); err != nil {
		return nil, fmt.Errorf("snapshot: load comments: %w", err)
	}
	if snap.Stars, err = st.ListStars(ctx, projectID); err != nil {
		return nil, fmt.Errorf("snapshot: load stars: %w", err)
	}
	return snap, nil
}

// filename is the canonical snapshot name shared by all backends.
func filename(snap *ProjectSnapshot) string {
	return fmt.Sprintf("%s-%s.json", snap.Project.ID, snap.ExportedAt.Format("20060102T150405Z"))
}
