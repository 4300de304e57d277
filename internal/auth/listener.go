package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"staticcms/internal/apperr"
	"staticcms/internal/logging"
)

// CallbackResult captures the outcome of the local OAuth callback.
type CallbackResult struct {
	Code  string
	State string
	Error string
}

// CallbackServer is a minimal loopback HTTP server that receives the OAuth
// redirect from the provider. It answers exactly one callback per Start;
// later requests get 410 Gone so a stale browser tab cannot smuggle in a
// second code.
type CallbackServer struct {
	server   *http.Server
	port     int
	result   chan *CallbackResult
	errChan  chan error
	mu       sync.Mutex
	running  bool
	answered bool
}

// NewCallbackServer constructs a callback server bound to the given port.
func NewCallbackServer(port int) *CallbackServer {
	return &CallbackServer{
		port:    port,
		result:  make(chan *CallbackResult, 1),
		errChan: make(chan error, 1),
	}
}

// Start launches the callback listener on localhost.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return apperr.New(apperr.KindBusy, "callback server already running")
	}
	if !s.isPortAvailable() {
		return apperr.New(apperr.KindConfiguration,
			"port %d is already in use - close the conflicting application or change callback.port", s.port)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("localhost:%d", s.port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.running = true
	s.answered = false

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.errChan <- err
		}
	}()

	logging.Debug("Callback server started", "port", s.port)
	return nil
}

// Stop gracefully terminates the callback listener. Safe to call when the
// server never started or already stopped.
func (s *CallbackServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.server == nil {
		return nil
	}
	defer func() {
		s.running = false
		s.server = nil
	}()
	return s.server.Shutdown(ctx)
}

// Await blocks until a callback arrives, the server fails, or ctx is done.
func (s *CallbackServer) Await(ctx context.Context) (*CallbackResult, error) {
	select {
	case res := <-s.result:
		return res, nil
	case err := <-s.errChan:
		return nil, apperr.Wrap(apperr.KindTransport, err, "callback server failed")
	case <-ctx.Done():
		return nil, apperr.Wrap(apperr.KindCanceled, ctx.Err(), "sign-in canceled")
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	first := !s.answered
	if first {
		s.answered = true
	}
	s.mu.Unlock()

	if !first {
		http.Error(w, "authorization already completed", http.StatusGone)
		return
	}

	query := r.URL.Query()
	if errParam := strings.TrimSpace(query.Get("error")); errParam != "" {
		desc := strings.TrimSpace(query.Get("error_description"))
		s.sendResult(&CallbackResult{Error: errParam})
		writeErrorPage(w, errParam, desc)
		return
	}

	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		s.sendResult(&CallbackResult{Error: "missing_code"})
		writeErrorPage(w, "missing_code", "The provider response did not include an authorization code.")
		return
	}

	state := query.Get("state")
	s.sendResult(&CallbackResult{Code: code, State: state})
	writeSuccessPage(w)
}

func (s *CallbackServer) sendResult(res *CallbackResult) {
	select {
	case s.result <- res:
	default:
		logging.Debug("Callback result channel full, dropping result")
	}
}

func (s *CallbackServer) isPortAvailable() bool {
	addr := fmt.Sprintf("localhost:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}
