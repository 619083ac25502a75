package client

import (
	"encoding/json"
	"errors"

	"github.com/nowfit/chat/internal/protocol"
)

var errInvalidPayload = errors.New("invalid payload")

func decodePayload(payload interface{}, out interface{}) error {
	if payload == nil {
		return errInvalidPayload
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func decodeOnlineStatus(payload interface{}) (protocol.OnlineStatus, error) {
	var status protocol.OnlineStatus
	err := decodePayload(payload, &status)
	return status, err
}

func decodeTypingNotice(payload interface{}) (protocol.TypingNotice, error) {
	var notice protocol.TypingNotice
	err := decodePayload(payload, &notice)
	return notice, err
}

func decodeReceiveMessage(payload interface{}) (protocol.ReceiveMessage, error) {
	var msg protocol.ReceiveMessage
	err := decodePayload(payload, &msg)
	return msg, err
}

func decodeChatHistory(payload interface{}) (protocol.ChatHistory, error) {
	var history protocol.ChatHistory
	err := decodePayload(payload, &history)
	return history, err
}
