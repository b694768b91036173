// Package feedsim is a local stand-in for the fraud detection backend: one
// websocket feed per mode plus the start/stop/reset control API.
package feedsim

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/fraud-watch/monitor/internal/feed"
)

// Options configures a Server.
type Options struct {
	Tick      time.Duration
	BatchSize int
	FraudRate float64
	Token     string // empty disables auth
	Seed      int64
	Logger    *log.Logger
}

type stream struct {
	gen *Generator
	bc  *Broadcaster
}

type Server struct {
	opts     Options
	logger   *log.Logger
	streams  map[feed.Mode]*stream
	upgrader websocket.Upgrader
	router   *mux.Router
}

func NewServer(opts Options) *Server {
	if opts.Tick <= 0 {
		opts.Tick = 500 * time.Millisecond
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = feed.DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		opts:    opts,
		logger:  logger,
		streams: make(map[feed.Mode]*stream),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		router: mux.NewRouter(),
	}
	for i, m := range feed.Modes {
		s.streams[m] = &stream{
			gen: NewGenerator(m, opts.FraudRate, opts.Seed+int64(i)),
			bc:  NewBroadcaster(m, logger),
		}
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	for m := range s.streams {
		s.router.HandleFunc(m.Endpoint(), s.handleWS(m)).Methods(http.MethodGet)
	}
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/mode/{mode}/{action:start|stop}", s.handleMode).Methods(http.MethodPost)
	api.HandleFunc("/reset/{mode}", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/stats/{mode}", s.handleStats).Methods(http.MethodGet)
}

// Handler returns the routed handler wrapped with CORS for browser clients.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(s.router)
}

// Generator exposes a mode's generator, mainly for tests.
func (s *Server) Generator(mode feed.Mode) *Generator {
	if st, ok := s.streams[mode]; ok {
		return st.gen
	}
	return nil
}

// Run broadcasts a batch per started mode every tick until ctx is done,
// then disconnects all clients.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()
	defer func() {
		for _, st := range s.streams {
			st.bc.CloseAll()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick emits one batch on every started mode.
func (s *Server) Tick() {
	for _, st := range s.streams {
		if !st.gen.Running() {
			continue
		}
		txs, stats := st.gen.Next(s.opts.BatchSize)
		size := s.opts.BatchSize
		st.bc.Broadcast(feed.Envelope{
			Type:         feed.MsgBatch,
			BatchSize:    &size,
			Transactions: txs,
			Stats:        &stats,
		})
	}
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go s.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("[state] feed simulator listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleWS(mode feed.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorize(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Printf("[err] ws upgrade: %v", err)
			return
		}

		bc := s.streams[mode].bc
		s.logger.Printf("[ws] %s client connected: %s", mode, r.RemoteAddr)
		c := bc.AddClient(conn)

		go func() {
			defer func() {
				bc.RemoveClient(c)
				s.logger.Printf("[ws] %s client disconnected: %s", mode, r.RemoteAddr)
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (feed.Mode, *stream, bool) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", nil, false
	}
	mode, err := feed.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
		return "", nil, false
	}
	return mode, s.streams[mode], true
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	mode, st, ok := s.lookup(w, r)
	if !ok {
		return
	}
	action := mux.Vars(r)["action"]
	status := "started"
	if action == "start" {
		st.gen.Start()
	} else {
		st.gen.Stop()
		status = "stopped"
	}
	s.logger.Printf("[ctl] %s %s", action, mode)
	writeJSON(w, http.StatusOK, map[string]string{"status": mode.Label() + " " + status})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	mode, st, ok := s.lookup(w, r)
	if !ok {
		return
	}
	st.gen.Reset()
	s.logger.Printf("[ctl] reset %s", mode)
	writeJSON(w, http.StatusOK, feed.ResetResponse{Message: mode.Label() + " stats reset"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	_, st, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st.gen.Stats())
}

func (s *Server) authorize(r *http.Request) bool {
	if s.opts.Token == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.opts.Token
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
