package journal

import (
	"context"
	"sort"
	"sync"

	"github.com/codeRisshi25/flowai/internal/models"
)

// MemoryStore хранит журнал только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu        sync.RWMutex
	transfers map[string]map[string]models.Placement
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{transfers: map[string]map[string]models.Placement{}}
}

// ChunkPlaced записывает (или обновляет) размещение по ключу transfer + stored name.
func (s *MemoryStore) ChunkPlaced(_ context.Context, p models.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, ok := s.transfers[p.TransferID]
	if !ok {
		chunks = map[string]models.Placement{}
		s.transfers[p.TransferID] = chunks
	}
	chunks[p.StoredName] = p
	return nil
}

// Placements возвращает записи передачи, отсортированные по имени файла.
func (s *MemoryStore) Placements(_ context.Context, transferID string) ([]models.Placement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.transfers[transferID]
	out := make([]models.Placement, 0, len(chunks))
	for _, p := range chunks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoredName < out[j].StoredName })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
