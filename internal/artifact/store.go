package artifact

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"ledcanvas/internal/fit"
	"ledcanvas/internal/models"
	"ledcanvas/internal/workers"
)

// Blobs is the durable byte store. Keys are artifact filenames.
type Blobs interface {
	Write(ctx context.Context, key string, data []byte) error
}

// Repository stores artifact metadata rows. Delete must be idempotent.
type Repository interface {
	Insert(ctx context.Context, a *models.Artifact) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Resizer is the resampling primitive applied to fitted images.
type Resizer func(img image.Image, width, height int) image.Image

func nearestNeighbor(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.NearestNeighbor)
}

type PersistRequest struct {
	Image   image.Image
	OwnerID int64
	// Prefix is prepended to the generated filename, e.g. "upload_".
	Prefix  string
	Options models.ArtifactOptions
	// Display, when set, fits the image to the profile before storing it.
	Display *models.DisplayProfile
	// Async moves the file write onto the worker pool. Persist still waits
	// for the write to finish before returning.
	Async bool
}

type Store struct {
	blobs  Blobs
	repo   Repository
	pool   *workers.Pool
	resize Resizer
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Store)

func WithResizer(r Resizer) Option {
	return func(s *Store) { s.resize = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore wires a store. pool may be nil, in which case async requests are
// written synchronously.
func NewStore(blobs Blobs, repo Repository, pool *workers.Pool, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		blobs:  blobs,
		repo:   repo,
		pool:   pool,
		resize: nearestNeighbor,
		now:    time.Now,
		logger: logger.With("component", "artifact"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func Filename(prefix string, ownerID int64, at time.Time) string {
	return fmt.Sprintf("%s%d_%d.%s", prefix, ownerID, at.Unix(), Ext)
}

func (s *Store) Persist(ctx context.Context, req PersistRequest) (*models.Artifact, error) {
	const op = "artifact.Persist"

	if req.Image == nil {
		return nil, fmt.Errorf("%s: %w: no image", op, ErrDecode)
	}
	if b := req.Image.Bounds(); b.Dx() < 1 || b.Dy() < 1 {
		return nil, fmt.Errorf("%s: %w: zero-area image", op, ErrDecode)
	}

	img := NormalizeRGB(req.Image)
	now := s.now().UTC()
	filename := Filename(req.Prefix, req.OwnerID, now)

	if req.Display != nil {
		b := img.Bounds()
		plan := fit.Plan(b.Dx(), b.Dy(), *req.Display, req.Options.Scroll())
		if plan.Resize {
			img = s.resize(img, plan.Width, plan.Height)
		}
	}

	write := func() error {
		data, err := EncodeBMP(img)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return s.blobs.Write(context.WithoutCancel(ctx), filename, data)
	}

	var pending <-chan workers.Result
	if req.Async && s.pool != nil {
		pending = s.pool.Submit(write)
	} else if err := write(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrStorageWrite, err)
	}

	b := img.Bounds()
	record := &models.Artifact{
		ID:              uuid.New(),
		Filename:        filename,
		OwnerID:         req.OwnerID,
		CreatedAt:       now,
		Width:           b.Dx(),
		Height:          b.Dy(),
		DisplayName:     req.Options.DisplayName,
		ScrollDirection: req.Options.Scroll().Direction,
		ScrollSpeed:     req.Options.ScrollSpeed,
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		if pending != nil {
			if res := <-pending; res.Outcome == workers.Failed {
				s.logger.Warn("file write failed after metadata error", "filename", filename, "error", res.Err)
			}
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMetadataWrite, err)
	}

	if pending == nil {
		return record, nil
	}

	res := <-pending
	switch res.Outcome {
	case workers.Succeeded:
		return record, nil
	case workers.Failed:
		s.compensate(ctx, record)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrStorageWrite, res.Err)
	default:
		return nil, fmt.Errorf("%s: unexpected write outcome %s", op, res.Outcome)
	}
}

// compensate removes the row of an artifact whose file never landed. Failures
// are logged only so the write error reaches the caller.
func (s *Store) compensate(ctx context.Context, record *models.Artifact) {
	if err := s.repo.Delete(context.WithoutCancel(ctx), record.ID); err != nil {
		s.logger.Error("failed to remove orphaned artifact row",
			"id", record.ID, "filename", record.Filename, "error", err)
		return
	}
	s.logger.Info("removed orphaned artifact row", "id", record.ID, "filename", record.Filename)
}
