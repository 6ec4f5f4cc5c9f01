package integration

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/codeRisshi25/flowai/internal/app/receiverhttp"
	"github.com/codeRisshi25/flowai/internal/chunkfs"
	"github.com/codeRisshi25/flowai/internal/janitor"
	"github.com/codeRisshi25/flowai/internal/metrics"
	"github.com/codeRisshi25/flowai/internal/placement"
	"github.com/codeRisshi25/flowai/internal/repo/journal"
	"github.com/codeRisshi25/flowai/internal/staging"
)

// stack — receiver целиком поверх временного каталога.
type stack struct {
	root    string
	url     string
	journal *journal.MemoryStore
}

func startReceiver(t *testing.T, policy placement.Policy) *stack {
	t.Helper()

	root := filepath.Join(t.TempDir(), "uploads")
	store, err := chunkfs.Open(root)
	if err != nil {
		t.Fatal(err)
	}

	log, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	j := journal.NewMemoryStore()

	h := receiverhttp.New(receiverhttp.Deps{
		Store:  store,
		Intake: staging.New(store, 1<<20, log),
		Engine: placement.New(placement.Deps{
			Store:         store,
			Policy:        policy,
			Observers:     []placement.Observer{j, m},
			Logger:        log,
			MaxConcurrent: 4,
		}),
		Janitor:  janitor.New(store, time.Hour, log),
		Metrics:  m,
		Gatherer: reg,
		Journal:  j,
		Logger:   log,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &stack{root: root, url: srv.URL, journal: j}
}

func (s *stack) read(t *testing.T, transferID, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(s.root, transferID, name))
	if err != nil {
		t.Fatalf("read %s/%s: %v", transferID, name, err)
	}
	return string(b)
}

func (s *stack) entries(t *testing.T, rel string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(s.root, rel))
	if err != nil {
		t.Fatalf("readdir %s: %v", rel, err)
	}
	return entries
}
