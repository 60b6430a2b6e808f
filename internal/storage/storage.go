// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledcanvas/internal/models"
)

var ErrNotFound = errors.New("storage: artifact not found")

// pgxIface is the subset of *pgxpool.Pool the repository uses.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type Storage struct {
	pool   pgxIface
	logger *slog.Logger
}

func NewStorage(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	const op = "storage.NewStorage"

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "storage")

	if err := runMigrations(dsn, logger); err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %v", op, err)
	}

	return &Storage{pool: pool, logger: logger}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

const artifactColumns = `id, filename, owner_id, created_at, width, height, display_name, scroll_direction, scroll_speed`

func (s *Storage) Insert(ctx context.Context, a *models.Artifact) error {
	const op = "storage.Insert"

	_, err := s.pool.Exec(ctx,
		`INSERT INTO artifacts (`+artifactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Filename, a.OwnerID, a.CreatedAt, a.Width, a.Height,
		a.DisplayName, string(a.ScrollDirection), a.ScrollSpeed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete removes the row if present. Deleting a missing id is not an error.
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "storage.Delete"

	if _, err := s.pool.Exec(ctx, `DELETE FROM artifacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, id uuid.UUID) (*models.Artifact, error) {
	const op = "storage.Get"

	row := s.pool.QueryRow(ctx, `SELECT `+artifactColumns+` FROM artifacts WHERE id = $1`, id)
	a, err := scanArtifact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func (s *Storage) List(ctx context.Context) ([]models.Artifact, error) {
	const op = "storage.List"

	rows, err := s.pool.Query(ctx, `SELECT `+artifactColumns+` FROM artifacts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	artifacts := []models.Artifact{}
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		artifacts = append(artifacts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return artifacts, nil
}

func scanArtifact(row pgx.Row) (*models.Artifact, error) {
	var (
		a         models.Artifact
		direction string
	)
	err := row.Scan(&a.ID, &a.Filename, &a.OwnerID, &a.CreatedAt, &a.Width, &a.Height,
		&a.DisplayName, &direction, &a.ScrollSpeed)
	if err != nil {
		return nil, err
	}
	a.ScrollDirection = models.ScrollDirection(direction)
	return &a, nil
}
