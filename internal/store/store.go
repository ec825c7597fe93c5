// Package store persists marketplace entities in sqlite.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/radarjoki/backend/internal/domain"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the sqlite handle.
type Store struct {
	db *sql.DB
}

// Open connects to the sqlite database at the provided path. Foreign keys
// are enabled through the DSN so every pooled connection enforces them.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path must be provided")
	}
	dsn := path + "?_foreign_keys=on"
	if strings.Contains(path, "?") {
		dsn = path + "&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate ensures the required tables are present.
func (s *Store) Migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'USER',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			budget REAL NOT NULL,
			priced REAL,
			is_open_bidding INTEGER NOT NULL DEFAULT 0,
			is_completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			user_id TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			project_id TEXT NOT NULL UNIQUE,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "migrate database")
		}
	}
	return nil
}

// CreateUser inserts a new user. Uniqueness of email and username is checked
// by the caller first so the API can report which field conflicts.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string, role domain.Role) (*domain.User, error) {
	if role == "" {
		role = domain.RoleUser
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert user")
	}
	return u, nil
}

// UserByEmail fetches a user by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userBy(ctx, "email", email)
}

// UserByUsername fetches a user by username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.userBy(ctx, "username", username)
}

// UserByID fetches a user by id.
func (s *Store) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.userBy(ctx, "id", id)
}

func (s *Store) userBy(ctx context.Context, column, value string) (*domain.User, error) {
	u := &domain.User{}
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at
		 FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "query user")
	}
	u.Role = domain.Role(role)
	return u, nil
}

// CreateProject inserts a project, assigning its id and timestamps.
func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	now := time.Now().UTC()
	p.ID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, title, description, budget, priced, is_open_bidding, is_completed, created_at, updated_at, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.Budget, p.Priced, p.IsOpenBidding, p.IsCompleted, p.CreatedAt, p.UpdatedAt, p.UserID,
	)
	return errors.Wrap(err, "insert project")
}

// ProjectByID fetches a project with its owner and message attached.
func (s *Store) ProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	p := &domain.Project{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, budget, priced, is_open_bidding, is_completed, created_at, updated_at, user_id
		 FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.Budget, &p.Priced, &p.IsOpenBidding, &p.IsCompleted, &p.CreatedAt, &p.UpdatedAt, &p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "query project")
	}

	if user, err := s.UserByID(ctx, p.UserID); err == nil {
		p.User = user
	}
	if msg, err := s.MessageByProjectID(ctx, p.ID); err == nil {
		p.Message = msg
	}
	return p, nil
}

// ProjectsByUser lists the projects owned by a user, newest first, with
// owner and message attached.
func (s *Store) ProjectsByUser(ctx context.Context, userID string) ([]*domain.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, budget, priced, is_open_bidding, is_completed, created_at, updated_at, user_id
		 FROM projects WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "query projects")
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		p := &domain.Project{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Budget, &p.Priced, &p.IsOpenBidding, &p.IsCompleted, &p.CreatedAt, &p.UpdatedAt, &p.UserID); err != nil {
			return nil, errors.Wrap(err, "scan project")
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate projects")
	}

	for _, p := range projects {
		if user, err := s.UserByID(ctx, p.UserID); err == nil {
			p.User = user
		}
		if msg, err := s.MessageByProjectID(ctx, p.ID); err == nil {
			p.Message = msg
		}
	}
	return projects, nil
}

// UpdateProject persists the mutable fields of a project.
func (s *Store) UpdateProject(ctx context.Context, p *domain.Project) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, description = ?, budget = ?, priced = ?, is_open_bidding = ?, is_completed = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Description, p.Budget, p.Priced, p.IsOpenBidding, p.IsCompleted, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update project")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project; its message goes with it via cascade.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete project")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateMessage inserts the single message for a project. The unique
// project_id constraint enforces one message per project; callers pre-check
// to report the conflict cleanly.
func (s *Store) CreateMessage(ctx context.Context, projectID, content string) (*domain.Message, error) {
	now := time.Now().UTC()
	m := &domain.Message{
		ID:        uuid.New().String(),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		ProjectID: projectID,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, content, created_at, updated_at, project_id) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Content, m.CreatedAt, m.UpdatedAt, m.ProjectID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "insert message")
	}
	return m, nil
}

// MessageByProjectID fetches a project's message.
func (s *Store) MessageByProjectID(ctx context.Context, projectID string) (*domain.Message, error) {
	m := &domain.Message{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, content, created_at, updated_at, project_id FROM messages WHERE project_id = ?`, projectID,
	).Scan(&m.ID, &m.Content, &m.CreatedAt, &m.UpdatedAt, &m.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "query message")
	}
	return m, nil
}

// UpdateMessage replaces a message's content.
func (s *Store) UpdateMessage(ctx context.Context, projectID, content string) (*domain.Message, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET content = ?, updated_at = ? WHERE project_id = ?`,
		content, now, projectID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "update message")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.MessageByProjectID(ctx, projectID)
}

// DeleteMessage removes a project's message.
func (s *Store) DeleteMessage(ctx context.Context, projectID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE project_id = ?`, projectID)
	if err != nil {
		return errors.Wrap(err, "delete message")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
