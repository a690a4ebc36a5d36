package store

import (
	"context"
	"errors"
)

// Store errors. Backends return these so callers can distinguish a missing
// record from a backend failure without inspecting driver errors.
var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrProjectNotFound is returned when a write references a project
	// that does not exist.
	ErrProjectNotFound = errors.New("store: project not found")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("store: closed")
)

// EntityStore is the durable record of projects and their canvas entities.
// Implementations must be safe for concurrent use. All writes are
// single-record, full-value operations: the last completed write wins and
// replays are idempotent.
type EntityStore interface {
	// Projects
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error

	// Actors
	CreateActor(ctx context.Context, a *Actor) error
	GetActor(ctx context.Context, id string) (*Actor, error)
	ListActors(ctx context.Context, projectID string) ([]*Actor, error)
	UpdateActor(ctx context.Context, a *Actor) error
	// UpdateActorPosition is the hot path for drag updates: a single-row
	// overwrite of the position columns plus the updated-at timestamp.
	UpdateActorPosition(ctx context.Context, actorID string, pos Position) error
	DeleteActor(ctx context.Context, id string) error

	// Relations. Duplicate (sourceId, targetId) pairs are not rejected
	// here; the editing layer is responsible for avoiding them.
	CreateRelation(ctx context.Context, r *Relation) error
	ListRelations(ctx context.Context, projectID string) ([]*Relation, error)
	UpdateRelation(ctx context.Context, r *Relation) error
	DeleteRelation(ctx context.Context, id string) error

	// Groups
	CreateGroup(ctx context.Context, g *Group) error
	ListGroups(ctx context.Context, projectID string) ([]*Group, error)
	UpdateGroup(ctx context.Context, g *Group) error
	DeleteGroup(ctx context.Context, id string) error

	// Comments
	CreateComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, projectID string) ([]*Comment, error)
	UpdateComment(ctx context.Context, c *Comment) error
	DeleteComment(ctx context.Context, id string) error

	// Stars
	CreateStar(ctx context.Context, s *Star) error
	ListStars(ctx context.Context, projectID string) ([]*Star, error)
	DeleteStar(ctx context.Context, id string) error

	// Close releases backend resources. Safe to call more than once.
	Close() error
}
