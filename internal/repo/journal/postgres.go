package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/codeRisshi25/flowai/internal/models"
)

const placementsTable = "chunk_placements"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PGStore сохраняет журнал в Postgres.
type PGStore struct {
	db *sql.DB
}

// NewPGStore открывает пул через драйвер pgx и проверяет соединение.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("journal dsn is empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}

	return &PGStore{db: db}, nil
}

// NewPGStoreFromDB оборачивает уже открытое подключение.
func NewPGStoreFromDB(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// ChunkPlaced выполняет UPSERT записи о размещении.
func (s *PGStore) ChunkPlaced(ctx context.Context, p models.Placement) error {
	sqlStr, args, err := psql.
		Insert(placementsTable).
		Columns("transfer_id", "stored_name", "org_file_name", "chunk_index", "size", "sha256", "replaced", "policy", "placed_at").
		Values(p.TransferID, p.StoredName, p.OrgFileName, p.ChunkIndex, p.Size, p.SHA256, p.Replaced, p.Policy, p.PlacedAt).
		Suffix(`
			ON CONFLICT (transfer_id, stored_name) DO UPDATE
			SET org_file_name = EXCLUDED.org_file_name,
				chunk_index   = EXCLUDED.chunk_index,
				size          = EXCLUDED.size,
				sha256        = EXCLUDED.sha256,
				replaced      = EXCLUDED.replaced,
				policy        = EXCLUDED.policy,
				placed_at     = EXCLUDED.placed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert sql: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("exec upsert: %w", err)
	}

	return nil
}

// Placements возвращает записи передачи по возрастанию имени файла.
func (s *PGStore) Placements(ctx context.Context, transferID string) ([]models.Placement, error) {
	if strings.TrimSpace(transferID) == "" {
		return nil, fmt.Errorf("transfer id is empty")
	}

	sqlStr, args, err := psql.
		Select("stored_name", "org_file_name", "chunk_index", "size", "sha256", "replaced", "policy", "placed_at").
		From(placementsTable).
		Where(sq.Eq{"transfer_id": transferID}).
		OrderBy("stored_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query placements: %w", err)
	}
	defer rows.Close()

	var out []models.Placement
	for rows.Next() {
		p := models.Placement{TransferID: transferID}
		if err := rows.Scan(&p.StoredName, &p.OrgFileName, &p.ChunkIndex, &p.Size, &p.SHA256, &p.Replaced, &p.Policy, &p.PlacedAt); err != nil {
			return nil, fmt.Errorf("scan placement row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate placements: %w", err)
	}

	return out, nil
}

// Close освобождает подключения пула.
func (s *PGStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
