// Package journal ведёт журнал размещённых чанков для внешнего сборщика.
// Источником истины остаётся файловая система; журнал лишь дублирует факт
// размещения, чтобы сборщик мог опрашивать его без обхода каталогов.
package journal

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeRisshi25/flowai/internal/models"
)

const memoryScheme = "memory://"

// Journal хранит записи о размещениях. Реализует placement.Observer.
type Journal interface {
	ChunkPlaced(ctx context.Context, p models.Placement) error
	Placements(ctx context.Context, transferID string) ([]models.Placement, error)
	Close() error
}

// Open выбирает реализацию по DSN: memory:// или строка подключения Postgres.
func Open(ctx context.Context, dsn string) (Journal, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("journal dsn is empty")
	case strings.HasPrefix(dsn, memoryScheme):
		return NewMemoryStore(), nil
	default:
		return NewPGStore(ctx, dsn)
	}
}

// IsMemory сообщает, что DSN указывает на in-memory журнал (миграции не нужны).
func IsMemory(dsn string) bool {
	return strings.HasPrefix(strings.TrimSpace(dsn), memoryScheme)
}
