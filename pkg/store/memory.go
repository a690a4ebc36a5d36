package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory EntityStore. It is the default backend and
// defines the reference semantics the SQL and Redis backends follow; it is
// also what the tests run against.
type MemoryStore struct {
	mu        sync.RWMutex
	projects  map[string]*Project
	actors    map[string]*Actor
	relations map[string]*Relation
	groups    map[string]*Group
	comments  map[string]*Comment
	stars     map[string]*Star
	closed    bool
}

// NewMemoryStore creates an empty in-memory entity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:  make(map[string]*Project),
		actors:    make(map[string]*Actor),
		relations: make(map[string]*Relation),
		groups:    make(map[string]*Group),
		comments:  make(map[string]*Comment),
		stars:     make(map[string]*Star),
	}
}

// stamp fills zero timestamps with now and always advances updatedAt.
func stamp(createdAt *time.Time, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt != nil && createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt != nil {
		*updatedAt = now
	}
}

func (m *MemoryStore) CreateProject(ctx context.Context, p *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	stamp(&p.CreatedAt, &p.UpdatedAt)
	m.projects[p.ID] = cloneProject(p)
	return nil
}

func (m *MemoryStore) GetProject(ctx context.Context, id string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProject(p), nil
}

func (m *MemoryStore) ListProjects(ctx context.Context) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make([]*Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateProject(ctx context.Context, p *Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	existing, ok := m.projects[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	stamp(nil, &p.UpdatedAt)
	m.projects[p.ID] = cloneProject(p)
	return nil
}

func (m *MemoryStore) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.projects[id]; !ok {
		return ErrNotFound
	}
	delete(m.projects, id)

	// Cascade to the project's entities.
	for aid, a := range m.actors {
		if a.ProjectID == id {
			delete(m.actors, aid)
		}
	}
	for rid, r := range m.relations {
		if r.ProjectID == id {
			delete(m.relations, rid)
		}
	}
	for gid, g := range m.groups {
		if g.ProjectID == id {
			delete(m.groups, gid)
		}
	}
	for cid, c := range m.comments {
		if c.ProjectID == id {
			delete(m.comments, cid)
		}
	}
	for sid, s := range m.stars {
		if s.ProjectID == id {
			delete(m.stars, sid)
		}
	}
	return nil
}

func (m *MemoryStore) CreateActor(ctx context.Context, a *Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.projects[a.ProjectID]; !ok {
		return ErrProjectNotFound
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	m.actors[a.ID] = cloneActor(a)
	return nil
}

func (m *MemoryStore) GetActor(ctx context.Context, id string) (*Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	a, ok := m.actors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneActor(a), nil
}

func (m *MemoryStore) ListActors(ctx context.Context, projectID string) ([]*Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	var out []*Actor
	for _, a := range m.actors {
		if a.ProjectID == projectID {
			out = append(out, cloneActor(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateActor(ctx context.Context, a *Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	existing, ok := m.actors[a.ID]
	if !ok {
		return ErrNotFound
	}
	a.ProjectID = existing.ProjectID
	a.CreatedAt = existing.CreatedAt
	stamp(nil, &a.UpdatedAt)
	m.actors[a.ID] = cloneActor(a)
	return nil
}

func (m *MemoryStore) UpdateActorPosition(ctx context.Context, actorID string, pos Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	a, ok := m.actors[actorID]
	if !ok {
		return ErrNotFound
	}
	a.Position = pos
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) DeleteActor(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.actors[id]; !ok {
		return ErrNotFound
	}
	delete(m.actors, id)
	return nil
}

func (m *MemoryStore) CreateRelation(ctx context.Context, r *Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.projects[r.ProjectID]; !ok {
		return ErrProjectNotFound
	}
	stamp(&r.CreatedAt, &r.UpdatedAt)
	m.relations[r.ID] = cloneRelation(r)
	return nil
}

func (m *MemoryStore) ListRelations(ctx context.Context, projectID string) ([]*Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	var out []*Relation
	for _, r := range m.relations {
		if r.ProjectID == projectID {
			out = append(out, cloneRelation(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateRelation(ctx context.Context, r *Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	existing, ok := m.relations[r.ID]
	if !ok {
		return ErrNotFound
	}
	r.ProjectID = existing.ProjectID
	r.CreatedAt = existing.CreatedAt
	stamp(nil, &r.UpdatedAt)
	m.relations[r.ID] = cloneRelation(r)
	return nil
}

func (m *MemoryStore) DeleteRelation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.relations[id]; !ok {
		return ErrNotFound
	}
	delete(m.relations, id)
	return nil
}

func (m *MemoryStore) CreateGroup(ctx context.Context, g *Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.projects[g.ProjectID]; !ok {
		return ErrProjectNotFound
	}
	stamp(&g.CreatedAt, &g.UpdatedAt)
	m.groups[g.ID] = cloneGroup(g)
	return nil
}

func (m *MemoryStore) ListGroups(ctx context.Context, projectID string) ([]*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	var out []*Group
	for _, g := range m.groups {
		if g.ProjectID == projectID {
			out = append(out, cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateGroup(ctx context.Context, g *Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	existing, ok := m.groups[g.ID]
	if !ok {
		return ErrNotFound
	}
	g.ProjectID = existing.ProjectID
	g.CreatedAt = existing.CreatedAt
	stamp(nil, &g.UpdatedAt)
	m.groups[g.ID] = cloneGroup(g)
	return nil
}

func (m *MemoryStore) DeleteGroup(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.groups[id]; !ok {
		return ErrNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *MemoryStore) CreateComment(ctx context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.projects[c.ProjectID]; !ok {
		return ErrProjectNotFound
	}
	stamp(&c.CreatedAt, &c.UpdatedAt)
	m.comments[c.ID] = cloneComment(c)
	return nil
}

func (m *MemoryStore) ListComments(ctx context.Context, projectID string) ([]*Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	var out []*Comment
	for _, c := range m.comments {
		if c.ProjectID == projectID {
			out = append(out, cloneComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpdateComment(ctx context.Context, c *Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	existing, ok := m.comments[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.ProjectID = existing.ProjectID
	c.CreatedAt = existing.CreatedAt
	stamp(nil, &c.UpdatedAt)
	m.comments[c.ID] = cloneComment(c)
	return nil
}

func (m *MemoryStore) DeleteComment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *MemoryStore) CreateStar(ctx context.Context, s *Star) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.projects[s.ProjectID]; !ok {
		return ErrProjectNotFound
	}
	stamp(&s.CreatedAt, nil)
	m.stars[s.ID] = cloneStar(s)
	return nil
}

func (m *MemoryStore) ListStars(ctx context.Context, projectID string) ([]*Star, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	var out []*Star
	for _, s := range m.stars {
		if s.ProjectID == projectID {
			out = append(out, cloneStar(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteStar(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	if _, ok := m.stars[id]; !ok {
		return ErrNotFound
	}
	delete(m.stars, id)
	return nil
}

// Close marks the store closed. Subsequent operations return ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Clone helpers return copies so callers never alias stored records.

func cloneProject(p *Project) *Project {
	cp := *p
	return &cp
}

func cloneActor(a *Actor) *Actor {
	ca := *a
	if a.Groups != nil {
		ca.Groups = append([]string(nil), a.Groups...)
	}
	return &ca
}

func cloneRelation(r *Relation) *Relation {
	cr := *r
	return &cr
}

func cloneGroup(g *Group) *Group {
	cg := *g
	return &cg
}

func cloneComment(c *Comment) *Comment {
	cc := *c
	return &cc
}

func cloneStar(s *Star) *Star {
	cs := *s
	return &cs
}
