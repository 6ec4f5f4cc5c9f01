package journal

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeRisshi25/flowai/internal/models"
)

var placedAt = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func samplePlacement(name, index string) models.Placement {
	return models.Placement{
		TransferID:  "t1",
		ChunkIndex:  index,
		OrgFileName: name,
		StoredName:  name,
		Size:        4,
		SHA256:      "e3b0",
		Policy:      "overwrite",
		PlacedAt:    placedAt,
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, "memory://")
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.ChunkPlaced(ctx, samplePlacement("part1", "1")))
	require.NoError(t, j.ChunkPlaced(ctx, samplePlacement("part0", "0")))

	replaced := samplePlacement("part0", "0")
	replaced.Replaced = true
	require.NoError(t, j.ChunkPlaced(ctx, replaced))

	got, err := j.Placements(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "part0", got[0].StoredName)
	assert.True(t, got[0].Replaced)
	assert.Equal(t, "part1", got[1].StoredName)

	none, err := j.Placements(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, IsMemory("memory://journal"))
	assert.False(t, IsMemory("postgres://localhost/flowai"))
}

func TestPGStoreChunkPlaced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := samplePlacement("part0", "0")
	mock.ExpectExec(`(?s)INSERT INTO chunk_placements \(transfer_id,stored_name,.+\) VALUES \(\$1,.+\$9\).+ON CONFLICT \(transfer_id, stored_name\) DO UPDATE`).
		WithArgs(p.TransferID, p.StoredName, p.OrgFileName, p.ChunkIndex, p.Size, p.SHA256, p.Replaced, p.Policy, p.PlacedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPGStoreFromDB(db)
	require.NoError(t, s.ChunkPlaced(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreChunkPlacedError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO chunk_placements`).WillReturnError(errors.New("connection reset"))

	err = NewPGStoreFromDB(db).ChunkPlaced(context.Background(), samplePlacement("part0", "0"))
	require.ErrorContains(t, err, "exec upsert")
}

func TestPGStorePlacements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"stored_name", "org_file_name", "chunk_index", "size", "sha256", "replaced", "policy", "placed_at"}).
		AddRow("part0", "part0", "0", int64(4), "aa", false, "overwrite", placedAt).
		AddRow("part0~v1", "part0", "0", int64(5), "bb", false, "version", placedAt)
	mock.ExpectQuery(`SELECT (.+) FROM chunk_placements WHERE transfer_id = \$1 ORDER BY stored_name`).
		WithArgs("t1").
		WillReturnRows(rows)

	got, err := NewPGStoreFromDB(db).Placements(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TransferID)
	assert.Equal(t, "part0~v1", got[1].StoredName)
	assert.Equal(t, int64(5), got[1].Size)
	assert.Equal(t, "version", got[1].Policy)
	assert.True(t, got[1].PlacedAt.Equal(placedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStorePlacementsEmptyTransfer(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewPGStoreFromDB(db).Placements(context.Background(), "")
	require.Error(t, err)
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	b, err := fs.ReadFile(migrationFiles, migrationsDir+"/"+entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	assert.Contains(t, string(b), "CREATE TABLE IF NOT EXISTS chunk_placements")
}

func TestRunMigrationsRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	err := RunMigrations(ctx, "postgres://localhost/flowai", "sideways")
	require.ErrorContains(t, err, "unknown migration command")

	require.Error(t, RunMigrations(ctx, "", MigrateStatus))
	require.Error(t, RunMigrations(ctx, "memory://", MigrateUp))

	for _, cmd := range []string{MigrateUp, MigrateUpByOne, MigrateDown, MigrateStatus, " Version "} {
		_, err := migrationCommand(cmd)
		assert.NoError(t, err, cmd)
	}
}

func TestPGStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set TEST_POSTGRES_DSN to run postgres-backed journal tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, ApplyMigrations(ctx, dsn))
	require.NoError(t, RunMigrations(ctx, dsn, MigrateStatus))

	j, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer j.Close()

	p := samplePlacement("part0", "0")
	p.TransferID = "roundtrip-" + time.Now().Format("150405.000000")
	require.NoError(t, j.ChunkPlaced(ctx, p))

	got, err := j.Placements(ctx, p.TransferID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, p.SHA256, got[0].SHA256)
}
