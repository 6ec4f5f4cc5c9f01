package receiverhttp

import (
	"io"
	"net/http"

	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

func (s *Server) greet(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, receiverproto.Greeting)
}
