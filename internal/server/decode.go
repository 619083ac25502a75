package server

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/nowfit/chat/internal/protocol"
)

var errInvalidPayload = errors.New("invalid payload")

var validate = validator.New()

// decodePayload re-marshals the loosely typed envelope payload into the
// expected event struct and checks its required fields. Anything malformed
// is dropped by the caller, never fatal.
func decodePayload(payload interface{}, out interface{}) error {
	if payload == nil {
		return errInvalidPayload
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	if err := validate.Struct(out); err != nil {
		return errInvalidPayload
	}
	return nil
}

func decodeRegisterUser(payload interface{}) (protocol.RegisterUser, error) {
	var req protocol.RegisterUser
	err := decodePayload(payload, &req)
	return req, err
}

func decodeJoinRoom(payload interface{}) (protocol.JoinRoom, error) {
	var req protocol.JoinRoom
	err := decodePayload(payload, &req)
	return req, err
}

func decodeTyping(payload interface{}) (protocol.Typing, error) {
	var req protocol.Typing
	err := decodePayload(payload, &req)
	return req, err
}

func decodeSendMessage(payload interface{}) (protocol.SendMessage, error) {
	var req protocol.SendMessage
	err := decodePayload(payload, &req)
	return req, err
}
