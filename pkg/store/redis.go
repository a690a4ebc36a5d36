package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed EntityStore. Records are JSON values keyed by
// entity id; per-project membership is tracked in sets so List* avoids a
// keyspace scan.
//
// Key layout:
//
//	antapp:project:<id>            project record
//	antapp:projects                set of project ids
//	antapp:actor:<id>              actor record
//	antapp:project:<id>:actors     set of actor ids in the project
//	(relations, groups, comments, stars follow the actor pattern)
type RedisStore struct {
	client *redis.Client
	prefix string
	closed atomic.Bool
}

// RedisStoreOption configures RedisStore behavior.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix sets the key prefix. Default: "antapp".
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a Redis-backed entity store. The client is shared,
// not owned: Close does not close it.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "antapp",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// putRecord stores the JSON record and registers the id in the member set.
func (s *RedisStore) putRecord(ctx context.Context, recordKey, setKey, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey, data, 0)
	pipe.SAdd(ctx, setKey, id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) getRecord(ctx context.Context, recordKey string, v any) error {
	data, err := s.client.Get(ctx, recordKey).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *RedisStore) delRecord(ctx context.Context, recordKey, setKey, id string) error {
	n, err := s.client.Exists(ctx, recordKey).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, recordKey)
	pipe.SRem(ctx, setKey, id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) requireProject(ctx context.Context, projectID string) error {
	n, err := s.client.Exists(ctx, s.key("project", projectID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (s *RedisStore) CreateProject(ctx context.Context, p *Project) error {
	if s.closed.Load() {
		return ErrClosed
	}
	stamp(&p.CreatedAt, &p.UpdatedAt)
	return s.putRecord(ctx, s.key("project", p.ID), s.key("projects"), p.ID, p)
}

func (s *RedisStore) GetProject(ctx context.Context, id string) (*Project, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	p := &Project{}
	if err := s.getRecord(ctx, s.key("project", id), p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *RedisStore) ListProjects(ctx context.Context) ([]*Project, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ids, err := s.client.SMembers(ctx, s.key("projects")).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Project, 0, len(ids))
	for _, id := range ids {
		p := &Project{}
		err := s.getRecord(ctx, s.key("project", id), p)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sortByCreatedAt(out, func(p *Project) int64 { return p.CreatedAt.UnixNano() })
	return out, nil
}

func (s *RedisStore) UpdateProject(ctx context.Context, p *Project) error {
	if s.closed.Load() {
		return ErrClosed
	}

	existing := &Project{}
	if err := s.getRecord(ctx, s.key("project", p.ID), existing); err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	stamp(nil, &p.UpdatedAt)
	return s.putRecord(ctx, s.key("project", p.ID), s.key("projects"), p.ID, p)
}

func (s *RedisStore) DeleteProject(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.requireProject(ctx, id); err != nil {
		if err == ErrProjectNotFound {
			return ErrNotFound
		}
		return err
	}

	// Remove each kind's records, its member set, then the project itself.
	for _, kind := range []string{"actors", "relations", "groups", "comments", "stars"} {
		setKey := s.key("project", id, kind)
		ids, err := s.client.SMembers(ctx, setKey).Result()
		if err != nil {
			return err
		}
		singular := kind[:len(kind)-1]
		pipe := s.client.TxPipeline()
		for _, eid := range ids {
			pipe.Del(ctx, s.key(singular, eid))
		}
		pipe.Del(ctx, setKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key("project", id))
	pipe.SRem(ctx, s.key("projects"), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) CreateActor(ctx context.Context, a *Actor) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.requireProject(ctx, a.ProjectID); err != nil {
		return err
	}
	stamp(&a.CreatedAt, &a.UpdatedAt)
	return s.putRecord(ctx, s.key("actor", a.ID), s.key("project", a.ProjectID, "actors"), a.ID, a)
}

func (s *RedisStore) GetActor(ctx context.Context, id string) (*Actor, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	a := &Actor{}
	if err := s.getRecord(ctx, s.key("actor", id), a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *RedisStore) ListActors(ctx context.Context, projectID string) ([]*Actor, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ids, err := s.client.SMembers(ctx, s.key("project", projectID, "actors")).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Actor, 0, len(ids))
	for _, id := range ids {
		a := &Actor{}
		err := s.getRecord(ctx, s.key("actor", id), a)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	sortByCreatedAt(out, func(a *Actor) int64 { return a.CreatedAt.UnixNano() })
	return out, nil
}

func (s *RedisStore) UpdateActor(ctx context.Context, a *Actor) error {
	if s.closed.Load() {
		return ErrClosed
	}

	existing := &Actor{}
	if err := s.getRecord(ctx, s.key("actor", a.ID), existing); err != nil {
		return err
	}
	a.ProjectID = existing.ProjectID
	a.CreatedAt = existing.CreatedAt
	stamp(nil, &a.UpdatedAt)
	return s.putRecord(ctx, s.key("actor", a.ID), s.key("project", a.ProjectID, "actors"), a.ID, a)
}

func (s *RedisStore) UpdateActorPosition(ctx context.Context, actorID string, pos Position) error {
	if s.closed.Load() {
		return ErrClosed
	}

	a := &Actor{}
	if err := s.getRecord(ctx, s.key("actor", actorID), a); err != nil {
		return err
	}
	a.Position = pos
	stamp(nil, &a.UpdatedAt)
	return s.putRecord(ctx, s.key("actor", actorID), s.key("project", a.ProjectID, "actors"), actorID, a)
}

func (s *RedisStore) DeleteActor(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	a := &Actor{}
	if err := s.getRecord(ctx, s.key("actor", id), a); err != nil {
		return err
	}
	return s.delRecord(ctx, s.key("actor", id), s.key("project", a.ProjectID, "actors"), id)
}

func (s *RedisStore) CreateRelation(ctx context.Context, r *Relation) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.requireProject(ctx, r.ProjectID); err != nil {
		return err
	}
	stamp(&r.CreatedAt, &r.UpdatedAt)
	return s.putRecord(ctx, s.key("relation", r.ID), s.key("project", r.ProjectID, "relations"), r.ID, r)
}

func (s *RedisStore) ListRelations(ctx context.Context, projectID string) ([]*Relation, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ids, err := s.client.SMembers(ctx, s.key("project", projectID, "relations")).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Relation, 0, len(ids))
	for _, id := range ids {
		r := &Relation{}
		err := s.getRecord(ctx, s.key("relation", id), r)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sortByCreatedAt(out, func(r *Relation) int64 { return r.CreatedAt.UnixNano() })
	return out, nil
}

func (s *RedisStore) UpdateRelation(ctx context.Context, r *Relation) error {
	if s.closed.Load() {
		return ErrClosed
	}

	existing := &Relation{}
	if err := s.getRecord(ctx, s.key("relation", r.ID), existing); err != nil {
		return err
	}
	r.ProjectID = existing.ProjectID
	r.CreatedAt = existing.CreatedAt
	stamp(nil, &r.UpdatedAt)
	return s.putRecord(ctx, s.key("relation", r.ID), s.key("project", r.ProjectID, "relations"), r.ID, r)
}

func (s *RedisStore) DeleteRelation(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	r := &Relation{}
	if err := s.getRecord(ctx, s.key("relation", id), r); err != nil {
		return err
	}
	return s.delRecord(ctx, s.key("relation", id), s.key("project", r.ProjectID, "relations"), id)
}

func (s *RedisStore) CreateGroup(ctx context.Context, g *Group) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.requireProject(ctx, g.ProjectID); err != nil {
		return err
	}
	stamp(&g.CreatedAt, &g.UpdatedAt)
	return s.putRecord(ctx, s.key("group", g.ID), s.key("project", g.ProjectID, "groups"), g.ID, g)
}

func (s *RedisStore) ListGroups(ctx context.Context, projectID string) ([]*Group, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ids, err := s.client.SMembers(ctx, s.key("project", projectID, "groups")).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Group, 0, len(ids))
	for _, id := range ids {
		g := &Group{}
		err := s.getRecord(ctx, s.key("group", id), g)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	sortByCreatedAt(out, func(g *Group) int64 { return g.CreatedAt.UnixNano() })
	return out, nil
}

func (s *RedisStore) UpdateGroup(ctx context.Context, g *Group) error {
	if s.closed.Load() {
		return ErrClosed
	}

	existing := &Group{}
	if err := s.getRecord(ctx, s.key("group", g.ID), existing); err != nil {
		return err
	}
	g.ProjectID = existing.ProjectID
	g.CreatedAt = existing.CreatedAt
	stamp(nil, &g.UpdatedAt)
	return s.putRecord(ctx, s.key("group", g.ID), s.key("project", g.ProjectID, "groups"), g.ID, g)
}

func (s *RedisStore) DeleteGroup(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	g := &Group{}
	if err := s.getRecord(ctx, s.key("group", id), g); err != nil {
		return err
	}
	return s.delRecord(ctx, s.key("group", id), s.key("project", g.ProjectID, "groups"), id)
}

func (s *RedisStore) CreateComment(ctx context.Context, c *Comment) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.requireProject(ctx, c.ProjectID); err != nil {
		return err
	}
	stamp(&c.CreatedAt, &c.UpdatedAt)
	return s.putRecord(ctx, s.key("comment", c.ID), s.key("project", c.ProjectID, "comments"), c.ID, c)
}

func (s *RedisStore) ListComments(ctx context.Context, projectID string) ([]*Comment, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ids, err := s.client.SMembers(ctx, s.key("project", projectID, "comments")).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Comment, 0, len(ids))
	for _, id := range ids {
		c := &Comment{}
		err := s.getRecord(ctx, s.key("comment", id), c)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortByCreatedAt(out, func(c *Comment) int64 { return c.CreatedAt.UnixNano() })
	return out, nil
}

func (s *RedisStore) UpdateComment(ctx context.Context, c *Comment) error {
	if s.closed.Load() {
		return ErrClosed
	}

	existing := &Comment{}
	if err := s.getRecord(ctx, s.key("comment", c.ID), existing); err != nil {
		return err
	}
	c.ProjectID = existing.ProjectID
	c.CreatedAt = existing.CreatedAt
	stamp(nil, &c.UpdatedAt)
	return s.putRecord(ctx, s.key("comment", c.ID), s.key("project", c.ProjectID, "comments"), c.ID, c)
}

func (s *RedisStore) DeleteComment(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	c := &Comment{}
	if err := s.getRecord(ctx, s.key("comment", id), c); err != nil {
		return err
	}
	return s.delRecord(ctx, s.key("comment", id), s.key("project", c.ProjectID, "comments"), id)
}

func (s *RedisStore) CreateStar(ctx context.Context, st *Star) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.requireProject(ctx, st.ProjectID); err != nil {
		return err
	}
	stamp(&st.CreatedAt, nil)
	return s.putRecord(ctx, s.key("star", st.ID), s.key("project", st.ProjectID, "stars"), st.ID, st)
}

func (s *RedisStore) ListStars(ctx context.Context, projectID string) ([]*Star, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	ids, err := s.client.SMembers(ctx, s.key("project", projectID, "stars")).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*Star, 0, len(ids))
	for _, id := range ids {
		st := &Star{}
		err := s.getRecord(ctx, s.key("star", id), st)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	sortByCreatedAt(out, func(st *Star) int64 { return st.CreatedAt.UnixNano() })
	return out, nil
}

func (s *RedisStore) DeleteStar(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	st := &Star{}
	if err := s.getRecord(ctx, s.key("star", id), st); err != nil {
		return err
	}
	return s.delRecord(ctx, s.key("star", id), s.key("project", st.ProjectID, "stars"), id)
}

// Close marks the store closed. The shared client is left open. The flag
// is atomic so a Close racing in-flight operations is safe.
func (s *RedisStore) Close() error {
	s.closed.Store(true)
	return nil
}

// sortByCreatedAt orders records by creation time so lists are stable
// across backends. Set membership in Redis is unordered.
func sortByCreatedAt[T any](items []T, at func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return at(items[i]) < at(items[j]) })
}
