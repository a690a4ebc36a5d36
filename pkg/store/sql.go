package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// SQLStore is a SQL-backed EntityStore. It works with PostgreSQL and SQLite
// through database/sql; queries are written with ? placeholders and rebound
// for the PostgreSQL dialect.
//
// Positions are stored as dedicated position_x/position_y columns so that
// the drag hot path (UpdateActorPosition) is a two-column overwrite rather
// than a full-record rewrite.
type SQLStore struct {
	db      *sql.DB
	dialect SQLDialect
	closed  atomic.Bool
}

// SQLDialect selects placeholder and DDL syntax.
type SQLDialect int

const (
	// DialectPostgreSQL uses $1, $2 placeholders.
	DialectPostgreSQL SQLDialect = iota
	// DialectSQLite uses ? placeholders.
	DialectSQLite
)

// SQLStoreOption configures SQLStore behavior.
type SQLStoreOption func(*SQLStore)

// WithSQLDialect sets the SQL dialect. Default: DialectPostgreSQL.
func WithSQLDialect(d SQLDialect) SQLStoreOption {
	return func(s *SQLStore) {
		s.dialect = d
	}
}

// NewSQLStore creates a SQL-backed entity store around an open database
// handle. The handle is shared, not owned: Close does not close it.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	s := &SQLStore{
		db:      db,
		dialect: DialectPostgreSQL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rebind converts ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgreSQL {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) projectExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM projects WHERE id = ?`), id).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrProjectNotFound
	}
	return err
}

// withTx runs fn inside a transaction, committing on nil error.
func (s *SQLStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	if s.closed.Load() {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateProject(ctx context.Context, p *Project) error {
	if s.closed.Load() {
		return ErrClosed
	}

	stamp(&p.CreatedAt, &p.UpdatedAt)
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO projects (id, name, icon, description, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.Name, p.Icon, p.Description, p.OwnerID, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *SQLStore) GetProject(ctx context.Context, id string) (*Project, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	p := &Project{}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, icon, description, owner_id, created_at, updated_at
		FROM projects WHERE id = ?
	`), id).Scan(&p.ID, &p.Name, &p.Icon, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) ListProjects(ctx context.Context) ([]*Project, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, icon, description, owner_id, created_at, updated_at
		FROM projects ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Project
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Icon, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateProject(ctx context.Context, p *Project) error {
	if s.closed.Load() {
		return ErrClosed
	}

	stamp(nil, &p.UpdatedAt)
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE projects SET name = ?, icon = ?, description = ?, owner_id = ?, updated_at = ?
		WHERE id = ?
	`), p.Name, p.Icon, p.Description, p.OwnerID, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) DeleteProject(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		// Child rows first; SQLite foreign keys are off by default.
		for _, table := range []string{"stars", "comments", "actor_groups", "relations", "actors"} {
			if _, err := tx.ExecContext(ctx, s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE project_id = ?`, table)), id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM projects WHERE id = ?`), id)
		if err != nil {
			return err
		}
		return checkAffected(res)
	})
}

func (s *SQLStore) CreateActor(ctx context.Context, a *Actor) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.projectExists(ctx, tx, a.ProjectID); err != nil {
			return err
		}

		stamp(&a.CreatedAt, &a.UpdatedAt)
		groups, err := json.Marshal(a.Groups)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.rebind(`
			INSERT INTO actors (id, project_id, name, emoji, description,
				position_x, position_y, color, size, groups, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), a.ID, a.ProjectID, a.Name, a.Emoji, a.Description,
			a.Position.X, a.Position.Y, a.Color, a.Size, string(groups), a.CreatedBy, a.CreatedAt, a.UpdatedAt)
		return err
	})
}

func scanActor(row interface{ Scan(...any) error }) (*Actor, error) {
	a := &Actor{}
	var groups string
	err := row.Scan(&a.ID, &a.ProjectID, &a.Name, &a.Emoji, &a.Description,
		&a.Position.X, &a.Position.Y, &a.Color, &a.Size, &groups, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if groups != "" && groups != "null" {
		if err := json.Unmarshal([]byte(groups), &a.Groups); err != nil {
			return nil, err
		}
	}
	return a, nil
}

const actorColumns = `id, project_id, name, emoji, description,
	position_x, position_y, color, size, groups, created_by, created_at, updated_at`

func (s *SQLStore) GetActor(ctx context.Context, id string) (*Actor, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	a, err := scanActor(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+actorColumns+` FROM actors WHERE id = ?`), id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *SQLStore) ListActors(ctx context.Context, projectID string) ([]*Actor, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+actorColumns+` FROM actors WHERE project_id = ? ORDER BY created_at`), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateActor(ctx context.Context, a *Actor) error {
	if s.closed.Load() {
		return ErrClosed
	}

	stamp(nil, &a.UpdatedAt)
	groups, err := json.Marshal(a.Groups)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE actors SET name = ?, emoji = ?, description = ?,
			position_x = ?, position_y = ?, color = ?, size = ?, groups = ?, updated_at = ?
		WHERE id = ?
	`), a.Name, a.Emoji, a.Description,
		a.Position.X, a.Position.Y, a.Color, a.Size, string(groups), a.UpdatedAt, a.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) UpdateActorPosition(ctx context.Context, actorID string, pos Position) error {
	if s.closed.Load() {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE actors SET position_x = ?, position_y = ?, updated_at = ?
		WHERE id = ?
	`), pos.X, pos.Y, time.Now().UTC(), actorID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) DeleteActor(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM actors WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) CreateRelation(ctx context.Context, r *Relation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.projectExists(ctx, tx, r.ProjectID); err != nil {
			return err
		}

		stamp(&r.CreatedAt, &r.UpdatedAt)
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO relations (id, project_id, source_id, target_id, name, description,
				color, width, start_style, end_style, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`), r.ID, r.ProjectID, r.SourceID, r.TargetID, r.Name, r.Description,
			r.Color, r.Width, r.StartStyle, r.EndStyle, r.CreatedAt, r.UpdatedAt)
		return err
	})
}

func (s *SQLStore) ListRelations(ctx context.Context, projectID string) ([]*Relation, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, project_id, source_id, target_id, name, description,
			color, width, start_style, end_style, created_at, updated_at
		FROM relations WHERE project_id = ? ORDER BY created_at
	`), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Relation
	for rows.Next() {
		r := &Relation{}
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.SourceID, &r.TargetID, &r.Name, &r.Description,
			&r.Color, &r.Width, &r.StartStyle, &r.EndStyle, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateRelation(ctx context.Context, r *Relation) error {
	if s.closed.Load() {
		return ErrClosed
	}

	stamp(nil, &r.UpdatedAt)
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE relations SET source_id = ?, target_id = ?, name = ?, description = ?,
			color = ?, width = ?, start_style = ?, end_style = ?, updated_at = ?
		WHERE id = ?
	`), r.SourceID, r.TargetID, r.Name, r.Description,
		r.Color, r.Width, r.StartStyle, r.EndStyle, r.UpdatedAt, r.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) DeleteRelation(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM relations WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) CreateGroup(ctx context.Context, g *Group) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.projectExists(ctx, tx, g.ProjectID); err != nil {
			return err
		}

		stamp(&g.CreatedAt, &g.UpdatedAt)
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO actor_groups (id, project_id, name, color, emoji, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`), g.ID, g.ProjectID, g.Name, g.Color, g.Emoji, g.CreatedAt, g.UpdatedAt)
		return err
	})
}

func (s *SQLStore) ListGroups(ctx context.Context, projectID string) ([]*Group, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, project_id, name, color, emoji, created_at, updated_at
		FROM actor_groups WHERE project_id = ? ORDER BY created_at
	`), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Group
	for rows.Next() {
		g := &Group{}
		if err := rows.Scan(&g.ID, &g.ProjectID, &g.Name, &g.Color, &g.Emoji, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateGroup(ctx context.Context, g *Group) error {
	if s.closed.Load() {
		return ErrClosed
	}

	stamp(nil, &g.UpdatedAt)
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE actor_groups SET name = ?, color = ?, emoji = ?, updated_at = ?
		WHERE id = ?
	`), g.Name, g.Color, g.Emoji, g.UpdatedAt, g.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) DeleteGroup(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM actor_groups WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) CreateComment(ctx context.Context, c *Comment) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.projectExists(ctx, tx, c.ProjectID); err != nil {
			return err
		}

		stamp(&c.CreatedAt, &c.UpdatedAt)
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO comments (id, project_id, text, position_x, position_y, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`), c.ID, c.ProjectID, c.Text, c.Position.X, c.Position.Y, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
		return err
	})
}

func (s *SQLStore) ListComments(ctx context.Context, projectID string) ([]*Comment, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, project_id, text, position_x, position_y, created_by, created_at, updated_at
		FROM comments WHERE project_id = ? ORDER BY created_at
	`), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Comment
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Text, &c.Position.X, &c.Position.Y,
			&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateComment(ctx context.Context, c *Comment) error {
	if s.closed.Load() {
		return ErrClosed
	}

	stamp(nil, &c.UpdatedAt)
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE comments SET text = ?, position_x = ?, position_y = ?, updated_at = ?
		WHERE id = ?
	`), c.Text, c.Position.X, c.Position.Y, c.UpdatedAt, c.ID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) DeleteComment(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM comments WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) CreateStar(ctx context.Context, st *Star) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.projectExists(ctx, tx, st.ProjectID); err != nil {
			return err
		}

		stamp(&st.CreatedAt, nil)
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO stars (id, project_id, position_x, position_y, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`), st.ID, st.ProjectID, st.Position.X, st.Position.Y, st.CreatedBy, st.CreatedAt)
		return err
	})
}

func (s *SQLStore) ListStars(ctx context.Context, projectID string) ([]*Star, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, project_id, position_x, position_y, created_by, created_at
		FROM stars WHERE project_id = ? ORDER BY created_at
	`), projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Star
	for rows.Next() {
		st := &Star{}
		if err := rows.Scan(&st.ID, &st.ProjectID, &st.Position.X, &st.Position.Y,
			&st.CreatedBy, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteStar(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM stars WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Close marks the store closed. The shared *sql.DB is left open. The flag
// is atomic so a Close racing in-flight operations is safe.
func (s *SQLStore) Close() error {
	s.closed.Store(true)
	return nil
}

// CreateSchema creates the entity tables if they don't exist.
// A convenience for development and testing; production deployments
// run migrations out of band.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	timestampType := "TIMESTAMP WITH TIME ZONE"
	if s.dialect == DialectSQLite {
		timestampType = "TEXT"
	}

	stmts := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				icon TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				owner_id TEXT NOT NULL DEFAULT '',
				created_at %[1]s NOT NULL,
				updated_at %[1]s NOT NULL
			)`, timestampType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS actors (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id),
				name TEXT NOT NULL,
				emoji TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				position_x DOUBLE PRECISION NOT NULL DEFAULT 0,
				position_y DOUBLE PRECISION NOT NULL DEFAULT 0,
				color TEXT NOT NULL DEFAULT '',
				size TEXT NOT NULL DEFAULT '3',
				groups TEXT NOT NULL DEFAULT '[]',
				created_by TEXT NOT NULL DEFAULT '',
				created_at %[1]s NOT NULL,
				updated_at %[1]s NOT NULL
			)`, timestampType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS relations (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id),
				source_id TEXT NOT NULL,
				target_id TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				color TEXT NOT NULL DEFAULT '',
				width INTEGER NOT NULL DEFAULT 1,
				start_style TEXT NOT NULL DEFAULT 'none',
				end_style TEXT NOT NULL DEFAULT 'arrow',
				created_at %[1]s NOT NULL,
				updated_at %[1]s NOT NULL
			)`, timestampType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS actor_groups (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id),
				name TEXT NOT NULL,
				color TEXT NOT NULL DEFAULT '',
				emoji TEXT NOT NULL DEFAULT '',
				created_at %[1]s NOT NULL,
				updated_at %[1]s NOT NULL
			)`, timestampType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS comments (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id),
				text TEXT NOT NULL,
				position_x DOUBLE PRECISION NOT NULL DEFAULT 0,
				position_y DOUBLE PRECISION NOT NULL DEFAULT 0,
				created_by TEXT NOT NULL DEFAULT '',
				created_at %[1]s NOT NULL,
				updated_at %[1]s NOT NULL
			)`, timestampType),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS stars (
				id TEXT PRIMARY KEY,
				project_id TEXT NOT NULL REFERENCES projects(id),
				position_x DOUBLE PRECISION NOT NULL DEFAULT 0,
				position_y DOUBLE PRECISION NOT NULL DEFAULT 0,
				created_by TEXT NOT NULL DEFAULT '',
				created_at %[1]s NOT NULL
			)`, timestampType),
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, table := range []string{"actors", "relations", "actor_groups", "comments", "stars"} {
		indexQuery := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_project ON %s(project_id)`, table, table)
		if _, err := s.db.ExecContext(ctx, indexQuery); err != nil {
			return err
		}
	}

	return nil
}
