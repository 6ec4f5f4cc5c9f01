package receiverhttp

import (
	"net/http"
)

// gcOnce вручную запускает очистку staging.
func (s *Server) gcOnce(w http.ResponseWriter, _ *http.Request) {
	res, err := s.janitor.SweepOnce()
	if err != nil {
		s.log.WithError(err).Error("manual staging sweep failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.WithField("removed", res.Removed).Info("manual staging sweep")
	w.WriteHeader(http.StatusNoContent)
}
