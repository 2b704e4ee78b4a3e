package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"wtr-service/config"
	"wtr-service/pkg/business"
	"wtr-service/pkg/common"
	"wtr-service/pkg/ingestion"
	"wtr-service/pkg/processing"
)

// Dependencies are the services the HTTP surface drives.
type Dependencies struct {
	Session  *business.MatchSession
	Sync     *business.SyncService
	History  *business.HistoryService
	Queue    *processing.OfflineQueue
	Identity *ingestion.IdentityTracker
	Monitor  *ingestion.ConnectivityMonitor
	Verifier *ingestion.TokenVerifier
	Hub      *Hub
	Logger   common.Logger
}

type Server struct {
	config     *config.Config
	session    *business.MatchSession
	sync       *business.SyncService
	history    *business.HistoryService
	queue      *processing.OfflineQueue
	identity   *ingestion.IdentityTracker
	monitor    *ingestion.ConnectivityMonitor
	verifier   *ingestion.TokenVerifier
	wsHub      *Hub
	logger     common.Logger
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	s := &Server{
		config:   cfg,
		session:  deps.Session,
		sync:     deps.Sync,
		history:  deps.History,
		queue:    deps.Queue,
		identity: deps.Identity,
		monitor:  deps.Monitor,
		verifier: deps.Verifier,
		wsHub:    deps.Hub,
		logger:   deps.Logger,
	}
	if s.logger == nil {
		s.logger = common.NopLogger{}
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Identity and connectivity signals
	api.HandleFunc("/auth/session", s.handleGetSession).Methods("GET")
	api.HandleFunc("/auth/session", s.handleSignIn).Methods("POST")
	api.HandleFunc("/auth/session", s.handleSignOut).Methods("DELETE")
	api.HandleFunc("/connectivity", s.handleSetConnectivity).Methods("PUT")

	// Active match
	api.HandleFunc("/match", s.handleGetMatch).Methods("GET")
	api.HandleFunc("/match", s.handleStartMatch).Methods("POST")
	api.HandleFunc("/match/clock", s.handleSetClock).Methods("PUT")
	api.HandleFunc("/match/events", s.handleRecordEvent).Methods("POST")
	api.HandleFunc("/match/score", s.handleAddScore).Methods("POST")
	api.HandleFunc("/match/finish", s.handleFinishMatch).Methods("POST")
	api.HandleFunc("/match/timeline", s.handleGetTimeline).Methods("GET")

	// History, staging and migration
	api.HandleFunc("/matches", s.handleListMatches).Methods("GET")
	api.HandleFunc("/matches/{id}", s.handleDeleteMatch).Methods("DELETE")
	api.HandleFunc("/pending", s.handleListPending).Methods("GET")
	api.HandleFunc("/sync", s.handleSync).Methods("POST")
	api.HandleFunc("/legacy", s.handleListLegacy).Methods("GET")
	api.HandleFunc("/legacy/{identifier}/migrate", s.handleMigrateLegacy).Methods("POST")

	router.HandleFunc("/ws", s.handleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info("HTTP server listening on :%s", s.config.Port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown error: %v", err)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// handleHealth reports liveness plus the device state the client cares about.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, signedIn := s.identity.OwnerID()
	_, active := s.session.Current()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"time":          time.Now().Unix(),
		"online":        s.monitor.IsOnline(),
		"authenticated": signedIn,
		"matchActive":   active,
		"pending":       s.queue.Len(r.Context()),
	})
}
