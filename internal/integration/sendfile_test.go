package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/codeRisshi25/flowai/internal/placement"
	"github.com/codeRisshi25/flowai/pkg/receiverclient"
)

func Test_SendFileReassembles(t *testing.T) {
	s := startReceiver(t, placement.PolicyOverwrite)

	payload := make([]byte, 300<<10)
	if _, err := rand.Read(payload); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "weights.bin")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := receiverclient.New(nil).SendFile(context.Background(), s.url, receiverclient.SendRequest{
		Path:        path,
		TransferID:  "model-1",
		ChunkSize:   64 << 10,
		Concurrency: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(res.Chunks))
	}

	var joined []byte
	for i := range res.Chunks {
		joined = append(joined, s.read(t, "model-1", receiverclient.ChunkName("weights.bin", i))...)
	}
	if !bytes.Equal(joined, payload) {
		t.Fatal("reassembled payload differs")
	}

	records, err := s.journal.Placements(context.Background(), "model-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 {
		t.Fatalf("journal has %d records", len(records))
	}
}
