package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/nowfit/chat/internal/auth"
	"github.com/nowfit/chat/internal/protocol"
	"github.com/nowfit/chat/internal/storage"
)

var (
	errUserExists         = errors.New("user already exists")
	errInvalidCredentials = errors.New("invalid credentials")
)

// registerRequest creates an account. Account administration proper lives
// outside this service; this endpoint exists so a deployment can be
// bootstrapped and the assignment relation populated.
type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=coach client"`
	CoachID  string `json:"coach_id"`
}

type clientEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req protocol.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	user, err := a.authenticateUser(r, req)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		a.log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := auth.NewToken(a.cfg.JWT, user.ID, user.Username, user.Role)
	if err != nil {
		a.log.Error("token issue", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, protocol.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(a.cfg.JWT.Expiration).Unix(),
		UserID:    user.ID,
		Role:      user.Role,
	})
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid register payload")
		return
	}

	user, err := a.createUser(r, req)
	if err != nil {
		if errors.Is(err, errUserExists) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		a.log.Error("register failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "register failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID})
}

// handleHistory returns the caller's conversation with :peer, oldest first.
// The pair must be a legitimate coach/client assignment; the room layer
// never re-checks this, so it is enforced here, before any room access.
func (a *App) handleHistory(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	claims, err := a.claimsFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	peer := strings.TrimSpace(params.ByName("peer"))
	if peer == "" {
		writeError(w, http.StatusBadRequest, "peer required")
		return
	}

	if _, err := a.store.GetUserByID(r.Context(), peer); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown peer")
			return
		}
		a.log.Error("peer lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}

	assigned, err := a.store.Assigned(r.Context(), claims.UserID, peer)
	if err != nil {
		a.log.Error("assignment check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if !assigned {
		writeError(w, http.StatusForbidden, "not an assigned pair")
		return
	}

	messages, err := a.store.ListMessagesBetween(r.Context(), claims.UserID, peer, a.cfg.HistoryLimit)
	if err != nil {
		a.log.Error("history load failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}

	history := protocol.ChatHistory{
		With: peer,
		Messages: lo.Map(messages, func(msg storage.Message, _ int) protocol.ChatMessage {
			return protocol.ChatMessage{
				Sender:    msg.Sender,
				Receiver:  msg.Receiver,
				Message:   msg.Content,
				Timestamp: msg.CreatedAt,
			}
		}),
	}
	writeJSON(w, http.StatusOK, history)
}

// handleClients lists the clients assigned to the calling coach along with
// their live presence flag.
func (a *App) handleClients(w http.ResponseWriter, r *http.Request) {
	claims, err := a.claimsFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if claims.Role != storage.RoleCoach {
		writeError(w, http.StatusForbidden, "coach role required")
		return
	}

	clients, err := a.store.ListClientsOfCoach(r.Context(), claims.UserID)
	if err != nil {
		a.log.Error("client list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "clients unavailable")
		return
	}

	entries := lo.Map(clients, func(user storage.User, _ int) clientEntry {
		return clientEntry{
			ID:       user.ID,
			Username: user.Username,
			Online:   a.presence.Online(user.ID),
		}
	})
	writeJSON(w, http.StatusOK, entries)
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) createUser(r *http.Request, req registerRequest) (*storage.User, error) {
	username := strings.TrimSpace(req.Username)

	if _, err := a.store.GetUserByUsername(r.Context(), username); err == nil {
		return nil, errUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &storage.User{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  hashed,
		Role:      req.Role,
		CoachID:   strings.TrimSpace(req.CoachID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *App) authenticateUser(r *http.Request, req protocol.LoginRequest) (*storage.User, error) {
	user, err := a.store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.Password, req.Password); err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

func (a *App) claimsFromRequest(r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, errInvalidCredentials
	}
	return auth.ParseToken(a.cfg.JWT, token)
}

func decodeBody(r *http.Request, out interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return err
	}
	return validate.Struct(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
