package receiverclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/codeRisshi25/flowai/internal/models"
	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

const defaultConcurrency = 4

// SendRequest — параметры отправки файла.
type SendRequest struct {
	Path       string
	TransferID string
	// ChunkSize > 0 задаёт размер чанка; иначе файл делится на Chunks частей.
	ChunkSize   int64
	Chunks      int
	Concurrency int
	// Progress, если задан, получает ASCII-индикатор по всему файлу.
	Progress io.Writer
}

// SendResult — итог отправки.
type SendResult struct {
	TransferID string
	Size       int64
	Chunks     []receiverproto.UploadChunkResponse
}

// ChunkName — имя файла чанка на receiver'е.
func ChunkName(base string, index int) string {
	return fmt.Sprintf("%s.part%d", base, index)
}

// SendFile режет файл на чанки и отправляет их параллельно. Каждый чанк
// читается из своего окна файла, поэтому порядок прихода на сервер произвольный.
func (h *httpClient) SendFile(ctx context.Context, baseURL string, req SendRequest) (SendResult, error) {
	res := SendResult{TransferID: req.TransferID}
	if req.TransferID == "" {
		return res, fmt.Errorf("transfer id is required")
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return res, err
	}
	res.Size = fi.Size()

	plan := planChunks(fi.Size(), req.ChunkSize, req.Chunks)
	base := filepath.Base(req.Path)

	var bar *progressBar
	if req.Progress != nil {
		bar = newProgressBar(req.Progress, fmt.Sprintf("Sending %s (%d chunks)", base, plan.Total), fi.Size())
		bar.render(true, "")
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	results := make([]receiverproto.UploadChunkResponse, plan.Total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for idx := 0; idx < plan.Total; idx++ {
		idx := idx
		off := int64(idx) * plan.Size
		n := min(plan.Size, fi.Size()-off)

		g.Go(func() error {
			sum, err := sectionSHA256(io.NewSectionReader(f, off, n))
			if err != nil {
				return fmt.Errorf("hash chunk %d: %w", idx, err)
			}

			var body io.Reader = io.NewSectionReader(f, off, n)
			if bar != nil {
				body = io.TeeReader(body, progressWriter{bar: bar})
			}

			resp, err := h.UploadChunk(gctx, baseURL, ChunkRequest{
				TransferID:  req.TransferID,
				Index:       idx,
				OrgFileName: ChunkName(base, idx),
				Reader:      body,
				SHA256:      sum,
			})
			if err != nil {
				return fmt.Errorf("upload chunk %d: %w", idx, err)
			}
			results[idx] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		bar.Fail(err)
		return res, err
	}
	bar.Finish()

	res.Chunks = results
	return res, nil
}

// planChunks вычисляет число чанков и размер каждого.
func planChunks(length, chunkSize int64, desired int) models.ChunkPlan {
	if length <= 0 {
		return models.ChunkPlan{Total: 1, Size: 0}
	}
	if chunkSize > 0 {
		return models.ChunkPlan{
			Total: int((length + chunkSize - 1) / chunkSize),
			Size:  chunkSize,
		}
	}
	if desired <= 0 {
		desired = 1
	}

	size := int64(math.Ceil(float64(length) / float64(desired)))
	if size <= 0 {
		size = 1
	}

	return models.ChunkPlan{
		Total: int((length + size - 1) / size),
		Size:  size,
	}
}

func sectionSHA256(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
