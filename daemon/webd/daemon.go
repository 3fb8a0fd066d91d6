package webd

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/gorilla/mux"
	"github.com/olahol/melody"
	"github.com/rotblauer/rund/daterange"
	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/reducer"
	"github.com/rotblauer/rund/state"
)

// WebDaemon serves session history and a live snapshot websocket over the
// session store. It is a consumer of the core's feeds, not a part of the
// tracking engine.
type WebDaemon struct {
	Config *params.WebDaemonConfig

	store          *state.Store
	calc           *daterange.Calculator
	logger         *slog.Logger
	melodyInstance *melody.Melody
	started        time.Time

	// weeklyCache memoizes reduced week buckets keyed by
	// "weekStart|metric"; purged whenever a session is finalized.
	weeklyCache *lru.Cache[string, weeklyResponse]
}

func NewWebDaemon(config *params.WebDaemonConfig, store *state.Store) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	cache, err := lru.New[string, weeklyResponse](64)
	if err != nil {
		return nil, err
	}
	return &WebDaemon{
		Config:      config,
		store:       store,
		calc:        daterange.NewCalculator(time.Local),
		logger:      slog.With("d", "web"),
		weeklyCache: cache,
		started:     time.Now(),
	}, nil
}

// Run starts the HTTP server (ListenAndServe) and waits for it,
// returning any server error.
func (s *WebDaemon) Run() error {
	router := s.NewRouter()
	http.Handle("/", router)
	log.Printf("Starting web daemon on %s", s.Config.Address)
	return http.ListenAndServe(s.Config.Address, nil)
}

func (s *WebDaemon) NewRouter() *mux.Router {

	// Handle websocket.
	s.initMelody()
	http.HandleFunc("/sorund", func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	jsonMiddleware := contentTypeMiddlewareFunc("application/json")
	apiJSONRoutes.Use(jsonMiddleware)

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/last").HandlerFunc(s.handleLastKnown).Methods(http.MethodGet)
	apiJSONRoutes.Path("/sessions").HandlerFunc(s.handleGetSessions).Methods(http.MethodGet)
	apiJSONRoutes.Path("/sessions/{id:[0-9]+}").HandlerFunc(s.handleGetSession).Methods(http.MethodGet)
	apiJSONRoutes.Path("/sessions/{id:[0-9]+}/activity").HandlerFunc(s.handleCorrectActivity).Methods(http.MethodPost)
	apiJSONRoutes.Path("/weekly").HandlerFunc(s.handleWeekly).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiJSONRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(tokenAuthenticationMiddleware)

	populateRoutes := authenticatedAPIRoutes.NewRoute().Subrouter()

	populateRoutes.Path("/populate/").HandlerFunc(s.handlePopulate).Methods(http.MethodPost)
	populateRoutes.Path("/populate").HandlerFunc(s.handlePopulate).Methods(http.MethodPost)

	return router
}

func weeklyCacheKey(weekStart int64, metric reducer.Metric) string {
	return fmt.Sprintf("%d|%s", weekStart, metric)
}
