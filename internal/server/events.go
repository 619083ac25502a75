package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nowfit/chat/internal/protocol"
	"github.com/nowfit/chat/internal/storage"
)

// dispatch routes one inbound envelope. Every failure is contained to the
// event: malformed payloads are logged and dropped, and nothing here can
// take the process down.
func (a *App) dispatch(s *clientSession, env protocol.Envelope) {
	switch env.Event {
	case protocol.EventRegisterUser:
		a.handleRegisterUser(s, env)
	case protocol.EventJoinRoom:
		a.handleJoinRoom(s, env)
	case protocol.EventTyping, protocol.EventStopTyping:
		a.handleTyping(s, env)
	case protocol.EventSendMessage:
		a.handleSendMessage(s, env)
	default:
		a.log.Debug("unhandled event", zap.String("event", string(env.Event)), zap.String("conn", s.id))
	}
}

func (a *App) handleRegisterUser(s *clientSession, env protocol.Envelope) {
	req, err := decodeRegisterUser(env.Payload)
	if err != nil {
		a.log.Warn("drop registerUser", zap.String("conn", s.id), zap.Error(err))
		return
	}
	if !validIdentity(req.UserID) {
		a.log.Warn("drop registerUser: bad identity", zap.String("conn", s.id))
		return
	}
	// A token-bound session may only register as the token subject.
	if s.boundUser != "" && s.boundUser != req.UserID {
		a.log.Warn("reject registerUser: identity mismatch",
			zap.String("conn", s.id),
			zap.String("bound", s.boundUser),
			zap.String("claimed", req.UserID))
		return
	}

	prev, superseded := a.presence.Register(req.UserID, s.id)
	if superseded {
		a.evictSession(prev)
		a.log.Info("superseded connection evicted",
			zap.String("user", req.UserID), zap.String("conn", prev))
	}

	a.log.Info("user online", zap.String("user", req.UserID), zap.String("conn", s.id))
	a.fanout.BroadcastAll(outbound(protocol.EventOnlineStatus, protocol.OnlineStatus{
		UserID: req.UserID,
		Status: protocol.StatusOnline,
	}))
}

func (a *App) handleJoinRoom(s *clientSession, env protocol.Envelope) {
	req, err := decodeJoinRoom(env.Payload)
	if err != nil {
		a.log.Warn("drop joinRoom", zap.String("conn", s.id), zap.Error(err))
		return
	}
	if !validIdentity(req.UserID) || !validIdentity(req.ReceiverID) {
		a.log.Warn("drop joinRoom: bad identity", zap.String("conn", s.id))
		return
	}

	room := RoomID(req.UserID, req.ReceiverID)
	a.hub.Join(room, s.id)

	ctx, cancel := a.storeContext()
	defer cancel()
	messages, err := a.store.ListMessagesBetween(ctx, req.UserID, req.ReceiverID, a.cfg.HistoryLimit)
	if err != nil {
		a.log.Error("history load failed", zap.String("room", room), zap.Error(err))
		return
	}

	history := protocol.ChatHistory{
		With:     req.ReceiverID,
		Messages: make([]protocol.ChatMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		history.Messages = append(history.Messages, protocol.ChatMessage{
			Sender:    msg.Sender,
			Receiver:  msg.Receiver,
			Message:   msg.Content,
			Timestamp: msg.CreatedAt,
		})
	}
	s.send(outbound(protocol.EventChatHistory, history))
}

// handleTyping relays typing and stopTyping to the computed room as a pure
// pass-through: no persistence, no debounce, a burst in produces a burst out.
func (a *App) handleTyping(s *clientSession, env protocol.Envelope) {
	req, err := decodeTyping(env.Payload)
	if err != nil {
		a.log.Warn("drop typing", zap.String("conn", s.id), zap.Error(err))
		return
	}
	room := RoomID(req.From, req.To)
	a.fanout.Broadcast(room, outbound(env.Event, protocol.TypingNotice{From: req.From}))
}

func (a *App) handleSendMessage(s *clientSession, env protocol.Envelope) {
	req, err := decodeSendMessage(env.Payload)
	if err != nil {
		a.log.Warn("drop sendMessage", zap.String("conn", s.id), zap.Error(err))
		return
	}

	msg := storage.Message{
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Content:  req.Message,
	}

	ctx, cancel := a.storeContext()
	defer cancel()
	if err := a.store.SaveMessage(ctx, &msg); err != nil {
		// Fire and forget: the failure is logged, the broadcast is
		// suppressed, and the sender gets nothing back over the channel.
		a.log.Error("message save failed",
			zap.String("sender", req.Sender),
			zap.String("receiver", req.Receiver),
			zap.Error(err))
		return
	}

	room := RoomID(req.Sender, req.Receiver)
	a.fanout.Broadcast(room, outbound(protocol.EventReceiveMessage, protocol.ReceiveMessage{
		Sender:    req.Sender,
		Receiver:  req.Receiver,
		Message:   req.Message,
		Timestamp: msg.CreatedAt,
	}))
}

// handleDisconnect runs once per connection after its read pump returns.
func (a *App) handleDisconnect(s *clientSession) {
	a.forgetSession(s.id)

	userID, ok := a.presence.Unregister(s.id)

	a.hub.Detach(s.id)
	s.close()

	if ok {
		a.log.Info("user offline", zap.String("user", userID), zap.String("conn", s.id))
		a.fanout.BroadcastAll(outbound(protocol.EventOnlineStatus, protocol.OnlineStatus{
			UserID: userID,
			Status: protocol.StatusOffline,
		}))
	} else {
		a.log.Info("connection closed", zap.String("conn", s.id))
	}
}

// evictSession force-closes the superseded side of a re-registration so it
// does not linger subscribed to rooms it no longer owns.
func (a *App) evictSession(connID string) {
	s := a.lookupSession(connID)
	a.hub.Detach(connID)
	if s != nil {
		a.forgetSession(connID)
		s.close()
	}
}

func (a *App) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.runCtx(), a.cfg.StoreTimeout)
}

func outbound(event protocol.EventName, payload interface{}) protocol.Envelope {
	return protocol.Envelope{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}
