package web

import (
	"context"
	"embed"
	stderrors "errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wippyai/dbn-playground/playground"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Logger *zap.Logger
	Addr   string

	// Secondary is the initial state of the secondary output checkbox.
	Secondary bool
}

// Server is the browser front end over a bootstrapped session.
type Server struct {
	session   *playground.Session
	logger    *zap.Logger
	router    *mux.Router
	addr      string
	secondary bool
}

func New(session *playground.Session, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		session:   session,
		logger:    logger,
		router:    mux.NewRouter(),
		addr:      opts.Addr,
		secondary: opts.Secondary,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.accessLog)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/run", s.handleRun).Methods(http.MethodPost)
	s.router.HandleFunc("/examples/{name}", s.handleExampleRaw).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/examples", s.handleListExamples).Methods(http.MethodGet)
	api.HandleFunc("/examples/{name}", s.handleGetExample).Methods(http.MethodGet)
	api.HandleFunc("/run", s.handleAPIRun).Methods(http.MethodPost)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Int64("bytes", m.Written),
			zap.Duration("elapsed", m.Duration))
	})
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("web server listening", zap.String("addr", "http://"+ln.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("web server stopped")
	return nil
}
