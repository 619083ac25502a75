package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nowfit/chat/internal/auth"
	"github.com/nowfit/chat/internal/protocol"
	"github.com/nowfit/chat/internal/storage"
)

func postJSON(t *testing.T, url string, body interface{}, token string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func seedPair(t *testing.T, store *memStore) (coach, client storage.User) {
	t.Helper()
	hashed, err := auth.HashPassword("secret")
	require.NoError(t, err)
	coach = storage.User{ID: "coach-1", Username: "coach", Password: hashed, Role: storage.RoleCoach}
	client = storage.User{ID: "client-1", Username: "client", Password: hashed, Role: storage.RoleClient, CoachID: coach.ID}
	require.NoError(t, store.CreateUser(context.Background(), &coach))
	require.NoError(t, store.CreateUser(context.Background(), &client))
	return coach, client
}

func TestRegisterAndLoginFlow(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, newMemStore())

	resp := postJSON(t, srv.URL+"/register", registerRequest{
		Username: "coach", Password: "secret", Role: storage.RoleCoach,
	}, "")
	req.Equal(http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/register", registerRequest{
		Username: "coach", Password: "other", Role: storage.RoleCoach,
	}, "")
	req.Equal(http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/login", protocol.LoginRequest{Username: "coach", Password: "wrong"}, "")
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/login", protocol.LoginRequest{Username: "coach", Password: "secret"}, "")
	req.Equal(http.StatusOK, resp.StatusCode)

	var login protocol.LoginResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&login))
	req.Equal(storage.RoleCoach, login.Role)

	claims, err := auth.ParseToken(testConfig().JWT, login.Token)
	req.NoError(err)
	req.Equal(login.UserID, claims.UserID)
	req.Equal("coach", claims.Username)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	_, srv := newTestApp(t, newMemStore())
	resp := postJSON(t, srv.URL+"/register", registerRequest{
		Username: "x", Password: "y", Role: "admin",
	}, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryRequiresAssignment(t *testing.T) {
	req := require.New(t)
	store := newMemStore()
	coach, client := seedPair(t, store)
	stranger := storage.User{ID: "stranger-1", Username: "stranger", Password: "x", Role: storage.RoleClient}
	req.NoError(store.CreateUser(context.Background(), &stranger))

	req.NoError(store.SaveMessage(context.Background(), &storage.Message{
		Sender: coach.ID, Receiver: client.ID, Content: "welcome",
	}))
	req.NoError(store.SaveMessage(context.Background(), &storage.Message{
		Sender: client.ID, Receiver: coach.ID, Content: "thanks",
	}))

	_, srv := newTestApp(t, store)
	token, err := auth.NewToken(testConfig().JWT, client.ID, client.Username, client.Role)
	req.NoError(err)

	resp := getJSON(t, srv.URL+"/history/"+coach.ID, "")
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/history/ghost", token)
	req.Equal(http.StatusNotFound, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/history/"+stranger.ID, token)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/history/"+coach.ID, token)
	req.Equal(http.StatusOK, resp.StatusCode)

	var history protocol.ChatHistory
	req.NoError(json.NewDecoder(resp.Body).Decode(&history))
	req.Equal(coach.ID, history.With)
	req.Len(history.Messages, 2)
	req.Equal("welcome", history.Messages[0].Message)
	req.Equal("thanks", history.Messages[1].Message)
}

func TestClientsListsAssignmentWithPresence(t *testing.T) {
	req := require.New(t)
	store := newMemStore()
	coach, client := seedPair(t, store)

	app, srv := newTestApp(t, store)
	app.presence.Register(client.ID, "conn-1")

	coachToken, err := auth.NewToken(testConfig().JWT, coach.ID, coach.Username, coach.Role)
	req.NoError(err)
	clientToken, err := auth.NewToken(testConfig().JWT, client.ID, client.Username, client.Role)
	req.NoError(err)

	resp := getJSON(t, srv.URL+"/clients", clientToken)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	resp = getJSON(t, srv.URL+"/clients", coachToken)
	req.Equal(http.StatusOK, resp.StatusCode)

	var entries []clientEntry
	req.NoError(json.NewDecoder(resp.Body).Decode(&entries))
	req.Len(entries, 1)
	req.Equal(client.ID, entries[0].ID)
	req.True(entries[0].Online)
}

func TestHealthz(t *testing.T) {
	_, srv := newTestApp(t, newMemStore())
	resp := getJSON(t, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExpiredTokenRejected(t *testing.T) {
	req := require.New(t)
	_, srv := newTestApp(t, newMemStore())

	cfg := testConfig().JWT
	cfg.Expiration = -time.Minute
	token, err := auth.NewToken(cfg, "u1", "u1", storage.RoleClient)
	req.NoError(err)

	resp := getJSON(t, srv.URL+"/history/peer", token)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}
