package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/resume"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/session"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/transports"
)

// Config carries the websocket transport settings.
type Config struct {
	ServerAddr     string   `mapstructure:"server_addr"`
	WebsocketPath  string   `mapstructure:"ws_path"`
	UploadPath     string   `mapstructure:"upload_path"`
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

func (c Config) withDefaults() Config {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.WebsocketPath == "" {
		c.WebsocketPath = "/ws/interview"
	}
	if c.UploadPath == "" {
		c.UploadPath = "/upload-resume"
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10 << 20
	}
	if !c.AllowAnyOrigin && len(c.AllowedOrigins) == 0 {
		c.AllowAnyOrigin = true
	}
	return c
}

// SessionFactory builds one orchestrator per accepted connection.
type SessionFactory func(id string, conn session.Conn) interface {
	Run(ctx context.Context) error
}

// Server hosts the interview websocket endpoint plus the résumé upload and
// health routes. One orchestrator goroutine runs per connection; sessions
// share nothing.
type Server struct {
	cfg       Config
	upgrader  websocket.Upgrader
	newSess   SessionFactory
	extractor resume.Extractor
	logger    *slog.Logger

	server *http.Server

	mu       sync.Mutex
	sessions map[string]*wsConn

	draining atomic.Bool
}

func NewServer(cfg Config, factory SessionFactory, extractor resume.Extractor, logger *slog.Logger) *Server {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		newSess:   factory,
		extractor: extractor,
		logger:    logger.With(slog.String("component", "ws_transport")),
		sessions:  make(map[string]*wsConn),
	}
	s.upgrader.CheckOrigin = s.checkOrigin
	return s
}

func (s *Server) Name() string { return "ws" }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.ServerAddr }

func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.Handle(s.cfg.WebsocketPath, s)
	mux.HandleFunc(s.cfg.UploadPath, s.handleUpload)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.server = &http.Server{
		Addr:              s.cfg.ServerAddr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           mux,
	}
	go func() {
		<-ctx.Done()
		_ = s.server.Close()
	}()
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ws_transport_server_error", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("ws_transport_listening",
		slog.String("addr", s.cfg.ServerAddr),
		slog.String("ws_path", s.cfg.WebsocketPath))
	return nil
}

func (s *Server) Stop() error {
	s.draining.Store(true)
	if s.server != nil {
		_ = s.server.Close()
	}
	s.mu.Lock()
	for _, conn := range s.sessions {
		_ = conn.Close()
	}
	s.sessions = make(map[string]*wsConn)
	s.mu.Unlock()
	return nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	id := uuid.NewString()
	conn := newConn(raw)
	s.attach(id, conn)
	defer s.detach(id)

	s.logger.Info("session_accepted", slog.String("session_id", id))
	if err := s.newSess(id, conn).Run(r.Context()); err != nil {
		s.logger.Info("session_aborted",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
	}
}

func (s *Server) attach(id string, conn *wsConn) {
	s.mu.Lock()
	s.sessions[id] = conn
	s.mu.Unlock()
}

func (s *Server) detach(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowAnyOrigin {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

var _ transports.Transport = (*Server)(nil)

// handleUpload accepts a multipart résumé document and delegates to the
// extraction collaborator, returning the structured profile as JSON.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.extractor == nil {
		http.Error(w, "resume extraction not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()
	document, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read upload", http.StatusBadRequest)
		return
	}

	profile, err := s.extractor.Extract(r.Context(), document, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, resume.ErrOversized):
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		case errors.Is(err, resume.ErrEmpty), errors.Is(err, resume.ErrUnreadable):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			s.logger.Error("resume_extraction_error", slog.String("error", err.Error()))
			http.Error(w, "resume extraction failed", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(profile)
}
