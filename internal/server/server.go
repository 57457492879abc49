package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"nextstep-backend/internal/analytics"
	"nextstep-backend/internal/tasks"
)

type Deps struct {
	Engine    *tasks.Engine
	Signer    tasks.PlanSigner
	History   *analytics.Recorder
	StaticDir string
	Logger    *zap.Logger
}

// New builds the full HTTP handler: API routes, static frontend, CORS and
// request middleware.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(withRequestLogger(d.Logger), withRecovery)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/suggest", tasks.SuggestHandler(d.Engine, d.Signer)).Methods(http.MethodPost)
	api.HandleFunc("/feedback", tasks.FeedbackHandler(d.Engine, d.Signer)).Methods(http.MethodPost)
	if d.History != nil {
		api.HandleFunc("/history", analytics.HistoryHandler(d.History)).Methods(http.MethodGet)
	}

	r.PathPrefix("/").Handler(spaHandler{dir: d.StaticDir}).Methods(http.MethodGet, http.MethodHead)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})

	return c.Handler(r)
}
