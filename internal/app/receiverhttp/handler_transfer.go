package receiverhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codeRisshi25/flowai/internal/models"
	"github.com/codeRisshi25/flowai/pkg/httperrors"
	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

// listChunks отдаёт размещённые чанки передачи.
func (s *Server) listChunks(w http.ResponseWriter, r *http.Request) {
	transferID := chi.URLParam(r, "transferID")

	chunks, err := s.engine.ListChunks(r.Context(), transferID)
	if err != nil {
		httperrors.Write(w, err)
		return
	}

	resp := receiverproto.ChunkListResponse{
		TransferID: transferID,
		Chunks:     make([]receiverproto.ChunkEntry, 0, len(chunks)),
	}
	for _, c := range chunks {
		resp.Chunks = append(resp.Chunks, receiverproto.ChunkEntry{
			Name:    c.Name,
			Size:    c.Size,
			ModTime: c.ModTime.Format(time.RFC3339Nano),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// listPlacements отдаёт записи журнала; пустой журнал по передаче — 404.
func (s *Server) listPlacements(w http.ResponseWriter, r *http.Request) {
	transferID := chi.URLParam(r, "transferID")

	records, err := s.journal.Placements(r.Context(), transferID)
	if err != nil {
		s.log.WithError(err).WithField("transfer_id", transferID).Error("read journal")
		httperrors.Write(w, models.StorageError("read journal", err))
		return
	}
	if len(records) == 0 {
		httperrors.Write(w, models.NotFoundError("read journal", models.ErrTransferNotFound))
		return
	}

	writeJSON(w, http.StatusOK, records)
}
