package client

import (
	"fmt"

	"github.com/nowfit/chat/internal/protocol"
)

func (a *App) handleEnvelope(env protocol.Envelope) {
	switch env.Event {
	case protocol.EventOnlineStatus:
		status, err := decodeOnlineStatus(env.Payload)
		if err != nil {
			return
		}
		a.online[status.UserID] = status.Status == protocol.StatusOnline
		if status.UserID == a.peer {
			a.logLine = fmt.Sprintf("%s is %s", status.UserID, status.Status)
			if status.Status == protocol.StatusOffline {
				a.peerTyping = false
			}
		}
	case protocol.EventTyping:
		notice, err := decodeTypingNotice(env.Payload)
		if err != nil || notice.From != a.peer {
			return
		}
		a.peerTyping = true
	case protocol.EventStopTyping:
		notice, err := decodeTypingNotice(env.Payload)
		if err != nil || notice.From != a.peer {
			return
		}
		a.peerTyping = false
	case protocol.EventReceiveMessage:
		msg, err := decodeReceiveMessage(env.Payload)
		if err != nil {
			return
		}
		a.appendMessage(msg.Sender, msg.Message, msg.Timestamp)
	case protocol.EventChatHistory:
		history, err := decodeChatHistory(env.Payload)
		if err != nil {
			return
		}
		a.history = a.history[:0]
		for _, msg := range history.Messages {
			a.appendMessage(msg.Sender, msg.Message, msg.Timestamp)
		}
		a.logLine = fmt.Sprintf("conversation with %s (%d messages)", history.With, len(history.Messages))
	}
	a.refreshViewport()
}
