package receiverhttp

import (
	"net/http"

	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

// health возвращает агрегированную статистику каталога uploads.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	u, err := s.store.Usage()
	if err != nil {
		s.log.WithError(err).Error("health: usage walk failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, receiverproto.HealthResponse{
		OK:         true,
		TotalBytes: u.TotalBytes,
		Transfers:  u.Transfers,
		Chunks:     u.Chunks,
		Staged:     u.Staged,
	})
}
