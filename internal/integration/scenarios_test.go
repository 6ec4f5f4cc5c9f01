package integration

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/codeRisshi25/flowai/internal/chunkfs"
	"github.com/codeRisshi25/flowai/internal/placement"
	"github.com/codeRisshi25/flowai/pkg/receiverclient"
	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

func upload(t *testing.T, s *stack, transferID string, idx int, name, body string) (receiverproto.UploadChunkResponse, error) {
	t.Helper()
	return receiverclient.New(nil).UploadChunk(context.Background(), s.url, receiverclient.ChunkRequest{
		TransferID:  transferID,
		Index:       idx,
		OrgFileName: name,
		Reader:      strings.NewReader(body),
	})
}

func statusOf(err error) int {
	var se *receiverclient.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func Test_Greeting(t *testing.T) {
	s := startReceiver(t, placement.PolicyOverwrite)

	resp, err := http.Get(s.url + "/")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != receiverproto.Greeting {
		t.Fatalf("greeting: %s %q", resp.Status, b)
	}
}

// первая отправка чанка создаёт каталог передачи и файл
func Test_FirstChunkOfTransfer(t *testing.T) {
	s := startReceiver(t, placement.PolicyOverwrite)

	resp, err := upload(t, s, "t1", 0, "part0", "AAAA")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message != receiverproto.SuccessMessage || resp.TransferID != "t1" || resp.ChunkIndex != "0" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := s.read(t, "t1", "part0"); got != "AAAA" {
		t.Fatalf("content %q", got)
	}
	if n := len(s.entries(t, chunkfs.StagingDir)); n != 0 {
		t.Fatalf("%d staged files left", n)
	}
}

func Test_ResubmitOverwrites(t *testing.T) {
	s := startReceiver(t, placement.PolicyOverwrite)

	if _, err := upload(t, s, "t1", 0, "part0", "AAAA"); err != nil {
		t.Fatal(err)
	}
	if _, err := upload(t, s, "t1", 0, "part0", "BBBB"); err != nil {
		t.Fatal(err)
	}
	if got := s.read(t, "t1", "part0"); got != "BBBB" {
		t.Fatalf("content %q", got)
	}
	if n := len(s.entries(t, "t1")); n != 1 {
		t.Fatalf("expected one file, got %d", n)
	}
}

func Test_MissingTransferID(t *testing.T) {
	s := startReceiver(t, placement.PolicyOverwrite)

	_, err := upload(t, s, "", 0, "part0", "AAAA")
	if statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if !strings.Contains(err.Error(), "Missing transferId or chunkIndex.") {
		t.Fatalf("unexpected message: %v", err)
	}

	entries := s.entries(t, ".")
	for _, e := range entries {
		if e.Name() != chunkfs.StagingDir {
			t.Fatalf("unexpected entry %q in uploads root", e.Name())
		}
	}
	if n := len(s.entries(t, chunkfs.StagingDir)); n != 0 {
		t.Fatalf("%d staged files left", n)
	}
}

func Test_ConcurrentChunksSameTransfer(t *testing.T) {
	s := startReceiver(t, placement.PolicyOverwrite)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i, name := range []string{"a", "b"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, err := receiverclient.New(nil).UploadChunk(context.Background(), s.url, receiverclient.ChunkRequest{
				TransferID:  "t2",
				Index:       i,
				OrgFileName: name,
				Reader:      strings.NewReader(strings.Repeat(name, 1024)),
			})
			errs <- err
		}(i, name)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := s.read(t, "t2", "a"); got != strings.Repeat("a", 1024) {
		t.Fatal("chunk a corrupted")
	}
	if got := s.read(t, "t2", "b"); got != strings.Repeat("b", 1024) {
		t.Fatal("chunk b corrupted")
	}
}

func Test_PathTraversalRejected(t *testing.T) {
	s := startReceiver(t, placement.PolicyOverwrite)

	for _, tc := range []struct{ transferID, name string }{
		{"t1", "../outside"},
		{"..", "outside"},
		{"t1/../..", "outside"},
		{"t1", `..\outside`},
	} {
		_, err := upload(t, s, tc.transferID, 0, tc.name, "EVIL")
		if statusOf(err) != http.StatusBadRequest {
			t.Fatalf("%+v: expected 400, got %v", tc, err)
		}
	}

	parent := filepath.Dir(s.root)
	if _, err := os.Stat(filepath.Join(parent, "outside")); !os.IsNotExist(err) {
		t.Fatalf("file written outside uploads root: %v", err)
	}
}

func Test_RejectPolicyKeepsOriginal(t *testing.T) {
	s := startReceiver(t, placement.PolicyReject)

	if _, err := upload(t, s, "t1", 0, "part0", "AAAA"); err != nil {
		t.Fatal(err)
	}
	_, err := upload(t, s, "t1", 0, "part0", "BBBB")
	if statusOf(err) != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	if got := s.read(t, "t1", "part0"); got != "AAAA" {
		t.Fatalf("original overwritten: %q", got)
	}
}

func Test_VersionPolicyKeepsBoth(t *testing.T) {
	s := startReceiver(t, placement.PolicyVersion)

	for _, body := range []string{"AAAA", "BBBB", "CCCC"} {
		if _, err := upload(t, s, "t1", 0, "part0", body); err != nil {
			t.Fatal(err)
		}
	}

	list, err := receiverclient.New(nil).ListChunks(context.Background(), s.url, "t1")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range list.Chunks {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "part0,part0~v1,part0~v2" {
		t.Fatalf("unexpected listing %v", names)
	}
	if got := s.read(t, "t1", "part0~v2"); got != "CCCC" {
		t.Fatalf("content %q", got)
	}
}
