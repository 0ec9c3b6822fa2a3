package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresGateway struct {
	pool *pgxpool.Pool
}

func NewPostgresGateway(ctx context.Context, databaseURL string) (*PostgresGateway, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresGateway{pool: pool}, nil
}

// Pool exposes the underlying pool so other stores can share connections.
func (g *PostgresGateway) Pool() *pgxpool.Pool {
	return g.pool
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			phone TEXT NOT NULL UNIQUE,
			session_id TEXT UNIQUE NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			project_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owning_user_id TEXT NOT NULL REFERENCES users(user_id),
			assigned_developer TEXT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			task_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			leader TEXT NULL,
			description TEXT NOT NULL,
			attachment_path TEXT NULL,
			project_id TEXT NOT NULL REFERENCES projects(project_id),
			created_at TIMESTAMPTZ NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (g *PostgresGateway) UserBySession(ctx context.Context, sessionID string) (User, error) {
	var (
		u       User
		session *string
	)
	err := g.pool.QueryRow(ctx,
		`SELECT user_id, phone, session_id FROM users WHERE session_id=$1`, sessionID,
	).Scan(&u.ID, &u.Phone, &session)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("user by session: %w", err)
	}
	if session != nil {
		u.SessionID = *session
	}
	return u, nil
}

func (g *PostgresGateway) ProjectsByPhone(ctx context.Context, phone string) ([]Project, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT p.project_id, p.name, p.owning_user_id, p.assigned_developer
		   FROM projects p
		   JOIN users u ON u.user_id = p.owning_user_id
		  WHERE u.phone=$1
		  ORDER BY p.name ASC`,
		phone,
	)
	if err != nil {
		return nil, fmt.Errorf("projects by phone: %w", err)
	}
	defer rows.Close()

	out := make([]Project, 0, 4)
	for rows.Next() {
		var (
			p   Project
			dev *string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerUserID, &dev); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if dev != nil {
			p.Developer = *dev
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return out, nil
}

func (g *PostgresGateway) ProjectByID(ctx context.Context, projectID string) (Project, error) {
	var (
		p   Project
		dev *string
	)
	err := g.pool.QueryRow(ctx,
		`SELECT project_id, name, owning_user_id, assigned_developer
		   FROM projects WHERE project_id=$1`,
		projectID,
	).Scan(&p.ID, &p.Name, &p.OwnerUserID, &dev)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("project by id: %w", err)
	}
	if dev != nil {
		p.Developer = *dev
	}
	return p, nil
}

func (g *PostgresGateway) UpsertUserSession(ctx context.Context, phone, sessionID string) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The session id is unique across users; detach it from any previous
	// owner before repointing it.
	if _, err := tx.Exec(ctx,
		`UPDATE users SET session_id=NULL WHERE session_id=$1 AND phone<>$2`,
		sessionID, phone,
	); err != nil {
		return fmt.Errorf("detach session: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (user_id, phone, session_id)
		 VALUES (gen_random_uuid()::text, $1, $2)
		 ON CONFLICT (phone) DO UPDATE SET session_id=EXCLUDED.session_id`,
		phone, sessionID,
	); err != nil {
		return fmt.Errorf("upsert user session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (g *PostgresGateway) InsertTask(ctx context.Context, task Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	var (
		leader     *string
		attachment *string
	)
	if task.Leader != "" {
		leader = &task.Leader
	}
	if task.AttachmentPath != "" {
		attachment = &task.AttachmentPath
	}
	_, err := g.pool.Exec(ctx,
		`INSERT INTO tasks (task_id, name, leader, description, attachment_path, project_id, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		task.ID, task.Name, leader, task.Description, attachment, task.ProjectID, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (g *PostgresGateway) Close() error {
	g.pool.Close()
	return nil
}
