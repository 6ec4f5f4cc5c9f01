package receiverhttp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codeRisshi25/flowai/internal/models"
	"github.com/codeRisshi25/flowai/pkg/httperrors"
	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

// uploadChunk принимает чанк: staging, затем размещение движком.
func (s *Server) uploadChunk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveDuration(time.Since(start))
		}
	}()

	sub, err := s.intake.Receive(w, r)
	if err != nil {
		s.fail(w, sub, err)
		return
	}

	p, err := s.engine.PlaceChunk(r.Context(), sub)
	if err != nil {
		// при сбое хранилища staged-файл остаётся для janitor'а
		if models.KindOf(err) != models.KindStorage {
			s.intake.Discard(sub.StagedPath)
		}
		s.fail(w, sub, err)
		return
	}

	s.log.WithFields(logrus.Fields{
		"transfer_id":   p.TransferID,
		"chunk_index":   p.ChunkIndex,
		"org_file_name": p.OrgFileName,
		"stored_name":   p.StoredName,
		"size":          p.Size,
	}).Info("received and saved chunk")

	writeJSON(w, http.StatusOK, receiverproto.UploadChunkResponse{
		Message:    receiverproto.SuccessMessage,
		TransferID: p.TransferID,
		ChunkIndex: p.ChunkIndex,
		StoredName: p.StoredName,
		Size:       p.Size,
		SHA256:     p.SHA256,
	})
}

func (s *Server) fail(w http.ResponseWriter, sub models.Submission, err error) {
	kind := models.KindOf(err)
	if s.metrics != nil {
		s.metrics.ObserveFailure(kind)
	}

	entry := s.log.WithError(err).WithFields(logrus.Fields{
		"transfer_id":   sub.TransferID,
		"chunk_index":   sub.ChunkIndex,
		"org_file_name": sub.OrgFileName,
		"kind":          kind.String(),
	})
	switch kind {
	case models.KindValidation, models.KindConflict, models.KindNotFound:
		entry.Info("chunk rejected")
	default:
		entry.Error("error saving chunk")
	}

	httperrors.Write(w, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
