package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/baseball-sim/sim-engine/metrics"
	"github.com/baseball-sim/sim-engine/models"
	"github.com/baseball-sim/sim-engine/simulation"
)

const (
	// Time allowed to write a status frame to the peer
	streamWriteWait = 10 * time.Second

	// How often a stream polls the run for progress
	streamPollInterval = 250 * time.Millisecond
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP front end of the simulation engine
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	engine     *simulation.SimulationEngine
	db         Pinger
	validate   *validator.Validate
	upgrader   websocket.Upgrader
	logger     logrus.FieldLogger
}

// SimulationRequest is one matchup plus optional overrides of the configured run options
type SimulationRequest struct {
	Matchup          models.Matchup `json:"matchup"`
	Trials           *int           `json:"trials,omitempty" validate:"omitempty,min=1,max=1000000"`
	Workers          *int           `json:"workers,omitempty" validate:"omitempty,min=1,max=256"`
	Seed             *uint64        `json:"seed,omitempty"`
	Noise            *bool          `json:"noise,omitempty"`
	ShareReliefUsage *bool          `json:"share_relief_usage,omitempty"`
}

// RunOptions applies the request's overrides to the defaults
func (req SimulationRequest) RunOptions(defaults simulation.RunOptions) simulation.RunOptions {
	opts := defaults
	if req.Trials != nil {
		opts.Trials = *req.Trials
	}
	if req.Workers != nil {
		opts.Workers = *req.Workers
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.Noise != nil {
		opts.Noise = *req.Noise
	}
	if req.ShareReliefUsage != nil {
		opts.ShareReliefUsage = *req.ShareReliefUsage
	}
	return opts
}

// BatchSimulationRequest starts one run per matchup
type BatchSimulationRequest struct {
	Simulations []SimulationRequest `json:"simulations" validate:"required,min=1,max=30,dive"`
}

type SimulationResponse struct {
	RunID     string    `json:"run_id"`
	GameID    string    `json:"game_id,omitempty"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type BatchSimulationResponse struct {
	Runs    []SimulationResponse `json:"runs"`
	Errors  []string             `json:"errors,omitempty"`
	Message string               `json:"message"`
}

type SimulationStatus struct {
	simulation.RunStatus
	Progress float64 `json:"progress"`
}

// NewServer builds the router. db may be nil when persistence is disabled.
func NewServer(port int, readTimeout, writeTimeout time.Duration, allowedOrigins []string,
	engine *simulation.SimulationEngine, db Pinger, logger logrus.FieldLogger) *Server {

	s := &Server{
		router:   mux.NewRouter(),
		engine:   engine,
		db:       db,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	})
	// Summaries carry every PMF; compress them
	handler := handlers.CompressHandler(c.Handler(s.router))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/", s.rootHandler).Methods("GET")
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	s.router.HandleFunc("/simulate", s.simulateHandler).Methods("POST")
	s.router.HandleFunc("/simulate/batch", s.simulateBatchHandler).Methods("POST")
	s.router.HandleFunc("/simulation/{id}/status", s.simulationStatusHandler).Methods("GET")
	s.router.HandleFunc("/simulation/{id}/result", s.simulationResultHandler).Methods("GET")
	s.router.HandleFunc("/simulation/{id}/stream", s.simulationStreamHandler).Methods("GET")
	s.router.HandleFunc("/simulation/{id}", s.cancelSimulationHandler).Methods("DELETE")
}

// Start serves until Shutdown
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting simulation engine")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests, then cancels runs in progress
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down simulation engine")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return s.engine.Shutdown(ctx)
}

// Handlers
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"service": "Baseball Game Simulation Engine",
		"version": Version,
		"status":  "online",
		"time":    time.Now().UTC(),
		"endpoints": map[string]string{
			"health":   "GET /health",
			"metrics":  "GET /metrics",
			"simulate": "POST /simulate",
			"batch":    "POST /simulate/batch",
			"status":   "GET /simulation/{id}/status",
			"result":   "GET /simulation/{id}/result",
			"stream":   "GET /simulation/{id}/stream (WebSocket)",
			"cancel":   "DELETE /simulation/{id}",
		},
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":      "healthy",
		"time":        time.Now().UTC(),
		"active_runs": s.engine.ActiveRuns(),
		"database":    "disabled",
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		health["database"] = "connected"
		if err := s.db.Ping(ctx); err != nil {
			health["database"] = "disconnected"
			health["status"] = "unhealthy"
			writeJSONStatus(w, http.StatusServiceUnavailable, health)
			return
		}
	}

	writeJSON(w, health)
}

func (s *Server) simulateHandler(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := s.startRun(r.Context(), req)
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	writeJSONStatus(w, http.StatusAccepted, resp)
}

func (s *Server) simulateBatchHandler(w http.ResponseWriter, r *http.Request) {
	var req BatchSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	var resp BatchSimulationResponse
	for i, sim := range req.Simulations {
		run, err := s.startRun(r.Context(), sim)
		if err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("simulation %d: %v", i, err))
			continue
		}
		resp.Runs = append(resp.Runs, run)
	}

	resp.Message = fmt.Sprintf("Started simulations for %d of %d games", len(resp.Runs), len(req.Simulations))
	status := http.StatusAccepted
	if len(resp.Runs) == 0 {
		status = http.StatusBadRequest
	}
	writeJSONStatus(w, status, resp)
}

func (s *Server) startRun(ctx context.Context, req SimulationRequest) (SimulationResponse, error) {
	opts := req.RunOptions(s.engine.Defaults())

	runID, err := s.engine.StartRun(ctx, &req.Matchup, opts)
	if err != nil {
		return SimulationResponse{}, err
	}

	return SimulationResponse{
		RunID:     runID,
		GameID:    req.Matchup.GameID,
		Status:    "started",
		Message:   fmt.Sprintf("Simulation started with %d trials", opts.Trials),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *Server) simulationStatusHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	status, err := s.engine.GetRunStatus(runID)
	if err != nil {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}

	writeJSON(w, SimulationStatus{RunStatus: status, Progress: status.Progress()})
}

func (s *Server) simulationResultHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	summary, err := s.engine.GetRunResult(r.Context(), runID)
	switch {
	case errors.Is(err, simulation.ErrRunNotFound):
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	case errors.Is(err, simulation.ErrRunNotComplete):
		http.Error(w, "Simulation not yet complete", http.StatusAccepted)
		return
	case err != nil:
		s.logger.WithError(err).WithField("run_id", runID).Warn("Failed to load simulation result")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, summary)
}

// simulationStreamHandler pushes a status frame whenever the run advances and
// closes the socket once the run is final
func (s *Server) simulationStreamHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]
	if _, err := s.engine.GetRunStatus(runID); err != nil {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		s.logger.WithError(err).WithField("run_id", runID).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Reading is required to notice the peer going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadDeadline(time.Time{})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	var last SimulationStatus
	sent := false
	for {
		status, err := s.engine.GetRunStatus(runID)
		if err != nil {
			closeStream(conn, websocket.CloseGoingAway, "simulation no longer tracked")
			return
		}

		current := SimulationStatus{RunStatus: status, Progress: status.Progress()}
		if !sent || current.Status != last.Status || current.CompletedTrials != last.CompletedTrials {
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(current); err != nil {
				return
			}
			last, sent = current, true
		}

		if status.Status.IsFinal() {
			closeStream(conn, websocket.CloseNormalClosure, string(status.Status))
			return
		}

		select {
		case <-gone:
			return
		case <-ticker.C:
		}
	}
}

func closeStream(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
}

// originChecker admits same-host requests, requests without an Origin and the configured origins
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	}
}

func (s *Server) cancelSimulationHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if err := s.engine.CancelRun(runID); err != nil {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeRunError maps matchup problems to 400 and everything else to 500
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, simulation.ErrInvalidMatchup) || errors.Is(err, simulation.ErrMalformedStat) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.WithError(err).Error("Failed to start simulation")
	http.Error(w, "Failed to create simulation", http.StatusInternalServerError)
}

// Middleware
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		// Scrapes would drown everything else
		if strings.HasPrefix(r.URL.Path, "/metrics") {
			return
		}
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.RequestURI,
			"status":   lrw.statusCode,
			"duration": time.Since(start).String(),
		}).Info("HTTP request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithField("panic", err).Error("Panic recovered")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Helper types and functions
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades through the logging middleware
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	lrw.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("Error encoding JSON")
	}
}
