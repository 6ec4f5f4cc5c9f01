package receiverhttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/codeRisshi25/flowai/internal/chunkfs"
	"github.com/codeRisshi25/flowai/internal/janitor"
	"github.com/codeRisshi25/flowai/internal/metrics"
	"github.com/codeRisshi25/flowai/internal/placement"
	"github.com/codeRisshi25/flowai/internal/repo/journal"
	"github.com/codeRisshi25/flowai/internal/staging"
	"github.com/codeRisshi25/flowai/pkg/receiverproto"
)

// Deps — зависимости HTTP-слоя. Metrics, Gatherer и Journal опциональны.
type Deps struct {
	Store       *chunkfs.Store
	Intake      *staging.Intake
	Engine      *placement.Engine
	Janitor     *janitor.Janitor
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Journal     journal.Journal
	CORSOrigins []string
	Logger      logrus.FieldLogger
}

// Server обслуживает приём чанков.
type Server struct {
	store   *chunkfs.Store
	intake  *staging.Intake
	engine  *placement.Engine
	janitor *janitor.Janitor
	metrics *metrics.Metrics
	journal journal.Journal
	log     logrus.FieldLogger
}

// New создаёт HTTP-обработчик receiver'а.
func New(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	srv := &Server{
		store:   deps.Store,
		intake:  deps.Intake,
		engine:  deps.Engine,
		janitor: deps.Janitor,
		metrics: deps.Metrics,
		journal: deps.Journal,
		log:     log.WithField("component", "http"),
	}

	return srv.routes(deps)
}

// routes регистрирует обработчики и middleware.
func (s *Server) routes(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(deps.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get(receiverproto.PathRoot, s.greet)
	r.Post(receiverproto.PathUploadChunk, s.uploadChunk)

	r.Route("/transfers/{transferID}", func(tr chi.Router) {
		tr.Get("/chunks", s.listChunks)
		if s.journal != nil {
			tr.Get("/placements", s.listPlacements)
		}
	})

	r.Get(receiverproto.PathHealth, s.health)
	if deps.Gatherer != nil {
		r.Handle(receiverproto.PathMetrics, promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	if s.janitor != nil {
		r.Post(receiverproto.PathAdminGC, s.gcOnce)
	}

	return r
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
