package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledcanvas/internal/models"
)

var columns = []string{"id", "filename", "owner_id", "created_at", "width", "height", "display_name", "scroll_direction", "scroll_speed"}

func newMockStorage(t *testing.T) (*Storage, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &Storage{pool: mock, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, mock
}

func TestStorage_Insert(t *testing.T) {
	s, mock := newMockStorage(t)

	name := "Panel"
	a := &models.Artifact{
		ID:              uuid.New(),
		Filename:        "drawing_1_100.bmp",
		OwnerID:         1,
		CreatedAt:       time.Unix(100, 0).UTC(),
		Width:           32,
		Height:          16,
		DisplayName:     &name,
		ScrollDirection: models.ScrollLeft,
		ScrollSpeed:     3,
	}

	mock.ExpectExec("INSERT INTO artifacts").
		WithArgs(a.ID, a.Filename, a.OwnerID, a.CreatedAt, a.Width, a.Height, a.DisplayName, "left", 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Insert(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_InsertError(t *testing.T) {
	s, mock := newMockStorage(t)

	dbErr := errors.New("unique violation")
	mock.ExpectExec("INSERT INTO artifacts").WillReturnError(dbErr)

	err := s.Insert(context.Background(), &models.Artifact{ID: uuid.New()})
	assert.ErrorIs(t, err, dbErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_DeleteIsIdempotent(t *testing.T) {
	s, mock := newMockStorage(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM artifacts").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM artifacts").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.Delete(context.Background(), id))
	require.NoError(t, s.Delete(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_Get(t *testing.T) {
	s, mock := newMockStorage(t)
	id := uuid.New()
	created := time.Unix(200, 0).UTC()

	mock.ExpectQuery("SELECT id, filename").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(id, "upload_2_200.bmp", int64(2), created, 16, 16, nil, "none", 0))

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "upload_2_200.bmp", got.Filename)
	assert.Equal(t, int64(2), got.OwnerID)
	assert.Equal(t, created, got.CreatedAt)
	assert.Nil(t, got.DisplayName)
	assert.Equal(t, models.ScrollNone, got.ScrollDirection)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_GetNotFound(t *testing.T) {
	s, mock := newMockStorage(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, filename").WithArgs(id).WillReturnRows(pgxmock.NewRows(columns))

	_, err := s.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_List(t *testing.T) {
	s, mock := newMockStorage(t)
	name := "Wide"

	mock.ExpectQuery("SELECT id, filename").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(uuid.New(), "a.bmp", int64(1), time.Unix(1, 0).UTC(), 8, 8, nil, "none", 0).
			AddRow(uuid.New(), "b.bmp", int64(1), time.Unix(2, 0).UTC(), 64, 6, &name, "right", 4))

	got, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.bmp", got[0].Filename)
	assert.Equal(t, models.ScrollRight, got[1].ScrollDirection)
	require.NotNil(t, got[1].DisplayName)
	assert.Equal(t, "Wide", *got[1].DisplayName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_ListEmpty(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery("SELECT id, filename").WillReturnRows(pgxmock.NewRows(columns))

	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
