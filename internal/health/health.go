// Package health отдаёт состояние бота по HTTP: /healthz и /livez.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	shutdownTimeout = 5 * time.Second
	// StaleAck - без heartbeat ACK дольше этого соединение считается мёртвым,
	// даже если gateway ещё не заметил обрыв. Discord шлёт heartbeat раз в ~41с.
	StaleAck = 2 * time.Minute
)

// Status - то, что health спрашивает у бота.
type Status interface {
	Connected() bool
	ChestCount() int
	SinceLastAck() time.Duration
}

type Report struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Chests    int    `json:"chests"`
	LastAck   string `json:"last_ack"`
	Uptime    string `json:"uptime"`
}

type Server struct {
	addr    string
	status  Status
	log     *zap.Logger
	started time.Time
	srv     *http.Server
}

func New(addr string, st Status, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{addr: addr, status: st, log: log, started: time.Now()}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	rep := Report{
		Status:    "ok",
		Connected: s.status.Connected(),
		Chests:    s.status.ChestCount(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	}
	sinceAck := s.status.SinceLastAck()
	rep.LastAck = sinceAck.Round(time.Second).String()
	code := http.StatusOK
	switch {
	case !rep.Connected:
		rep.Status = "disconnected"
		code = http.StatusServiceUnavailable
	case sinceAck > StaleAck:
		rep.Status = "stale"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		s.log.Debug("write health response", zap.Error(err))
	}
}

// ListenAndServe работает до отмены ctx.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	s.log.Info("health listening", zap.String("addr", s.addr))
	go func() {
		serveErr <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown health server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve health: %w", err)
	}
}
