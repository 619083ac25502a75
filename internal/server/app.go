package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/nowfit/chat/internal/auth"
	"github.com/nowfit/chat/internal/config"
	"github.com/nowfit/chat/internal/storage"
)

// App coordinates the websocket gateway, session lifecycle, presence, and
// room routing.
type App struct {
	cfg      config.ServerConfig
	store    storage.Store
	log      *zap.Logger
	hub      *RoomHub
	fanout   Broadcaster
	presence *PresenceRegistry
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*clientSession

	ctxMu sync.RWMutex
	ctx   context.Context
}

// NewApp constructs a server instance using the provided dependencies.
func NewApp(cfg config.ServerConfig, store storage.Store, log *zap.Logger) *App {
	hub := NewRoomHub()
	return &App{
		cfg:      cfg,
		store:    store,
		log:      log,
		hub:      hub,
		fanout:   hub,
		presence: NewPresenceRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*clientSession),
	}
}

// Handler exposes the HTTP surface; split out so tests can mount it on an
// httptest server.
func (a *App) Handler() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/ws", a.handleWS)
	router.HandlerFunc(http.MethodPost, "/login", a.handleLogin)
	router.HandlerFunc(http.MethodPost, "/register", a.handleRegister)
	router.GET("/history/:peer", a.handleHistory)
	router.HandlerFunc(http.MethodGet, "/clients", a.handleClients)
	router.HandlerFunc(http.MethodGet, "/healthz", a.handleHealth)
	return router
}

// Run migrates storage and serves until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.setRunCtx(ctx)

	migrateCtx, cancel := context.WithTimeout(ctx, a.cfg.StoreTimeout)
	err := a.store.Migrate(migrateCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	srv := &http.Server{
		Addr:    a.cfg.ListenAddr,
		Handler: a.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	a.log.Info("chat server listening", zap.String("addr", a.cfg.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		a.shutdownSessions()
		a.presence.Clear()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// handleWS admits a transport connection. Identity is optionally bound at
// admission from a verified token; without one the peer must assert it via
// registerUser, which is the source system's (unauthenticated) behavior.
func (a *App) handleWS(w http.ResponseWriter, r *http.Request) {
	boundUser, err := a.identityFromRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s := newClientSession(conn, boundUser)
	a.trackSession(s)
	a.hub.Attach(s.id, s.sendCh)

	a.log.Info("connection open",
		zap.String("conn", s.id),
		zap.String("remote", conn.RemoteAddr().String()))

	go s.writePump(a.cfg.WriteTimeout, pingPeriod(a.cfg.ReadTimeout))

	if err := s.readPump(a, a.cfg.ReadTimeout); err != nil {
		a.log.Warn("read pump", zap.String("conn", s.id), zap.Error(err))
	}
	a.handleDisconnect(s)
}

// identityFromRequest extracts the token subject from the upgrade request,
// if a token was supplied at all.
func (a *App) identityFromRequest(r *http.Request) (string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if token == "" {
		return "", nil
	}
	claims, err := auth.ParseToken(a.cfg.JWT, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func pingPeriod(readTimeout time.Duration) time.Duration {
	period := readTimeout * 9 / 10
	if period <= 0 {
		period = time.Second
	}
	return period
}

func (a *App) trackSession(s *clientSession) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions[s.id] = s
}

func (a *App) forgetSession(connID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, connID)
}

func (a *App) lookupSession(connID string) *clientSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions[connID]
}

func (a *App) shutdownSessions() {
	a.mu.Lock()
	sessions := make([]*clientSession, 0, len(a.sessions))
	for _, s := range a.sessions {
		sessions = append(sessions, s)
	}
	a.sessions = make(map[string]*clientSession)
	a.mu.Unlock()

	for _, s := range sessions {
		a.hub.Detach(s.id)
		s.close()
	}
}

func (a *App) setRunCtx(ctx context.Context) {
	a.ctxMu.Lock()
	defer a.ctxMu.Unlock()
	a.ctx = ctx
}

func (a *App) runCtx() context.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}
