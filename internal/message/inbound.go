package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMalformed   = errors.New("malformed envelope")
	ErrUnknownType = errors.New("unknown envelope type")
)

var validate = validator.New()

// Inbound is a decoded and validated client envelope.
type Inbound interface {
	Kind() string
	Sender() string
}

type JoinRoom struct {
	Code                string `json:"code" validate:"max=64"`
	ClientID            string `json:"clientId" validate:"required,max=128"`
	PreventNotification bool   `json:"preventNotification"`
}

type Text struct {
	ClientID  string `json:"clientId" validate:"required,max=128"`
	MessageID string `json:"messageId" validate:"required,max=256"`
	Message   string `json:"message" validate:"required"`
}

type Image struct {
	ClientID  string `json:"clientId" validate:"required,max=128"`
	MessageID string `json:"messageId" validate:"required,max=256"`
	Image     string `json:"image" validate:"required,startswith=data:"`
}

type Voice struct {
	ClientID  string `json:"clientId" validate:"required,max=128"`
	MessageID string `json:"messageId" validate:"required,max=256"`
	Audio     string `json:"audio" validate:"required,startswith=data:"`
}

type Reply struct {
	ClientID  string   `json:"clientId" validate:"required,max=128"`
	MessageID string   `json:"messageId" validate:"required,max=256"`
	Message   string   `json:"message" validate:"required"`
	ReplyTo   ReplyRef `json:"replyTo"`
}

// ReactionRequest carries a client-reported username, which is ignored: the
// echo is stamped with the server's view of the sender.
type ReactionRequest struct {
	ClientID  string `json:"clientId" validate:"required,max=128"`
	MessageID string `json:"messageId" validate:"required,max=256"`
	Emoji     string `json:"emoji" validate:"required,max=32"`
	Username  string `json:"username"`
}

type StatusRequest struct {
	ClientID string `json:"clientId" validate:"required,max=128"`
}

// LeaveRoom may arrive without a client id; the connection's session is used.
type LeaveRoom struct {
	ClientID            string `json:"clientId" validate:"max=128"`
	PreventNotification bool   `json:"preventNotification"`
}

func (*JoinRoom) Kind() string        { return TypeJoinRoom }
func (*Text) Kind() string            { return TypeText }
func (*Image) Kind() string           { return TypeImage }
func (*Voice) Kind() string           { return TypeVoice }
func (*Reply) Kind() string           { return TypeReply }
func (*ReactionRequest) Kind() string { return TypeReaction }
func (*StatusRequest) Kind() string   { return TypeStatusRequest }
func (*LeaveRoom) Kind() string       { return TypeLeaveRoom }

func (m *JoinRoom) Sender() string        { return m.ClientID }
func (m *Text) Sender() string            { return m.ClientID }
func (m *Image) Sender() string           { return m.ClientID }
func (m *Voice) Sender() string           { return m.ClientID }
func (m *Reply) Sender() string           { return m.ClientID }
func (m *ReactionRequest) Sender() string { return m.ClientID }
func (m *StatusRequest) Sender() string   { return m.ClientID }
func (m *LeaveRoom) Sender() string       { return m.ClientID }

// Decode parses one text frame into its typed envelope and validates the
// fields that type requires.
func Decode(data []byte) (Inbound, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var in Inbound
	switch head.Type {
	case TypeJoinRoom:
		in = &JoinRoom{}
	case TypeText:
		in = &Text{}
	case TypeImage:
		in = &Image{}
	case TypeVoice:
		in = &Voice{}
	case TypeReply:
		in = &Reply{}
	case TypeReaction:
		in = &ReactionRequest{}
	case TypeStatusRequest:
		in = &StatusRequest{}
	case TypeLeaveRoom:
		in = &LeaveRoom{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, head.Type)
	}

	if err := json.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, head.Type, err)
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, head.Type, err)
	}
	return in, nil
}

// Echo builders. Each stamps the resolved display name of the sender.

func (m *Text) Echo(username string) Content {
	return Content{Type: TypeText, Username: username, ClientID: m.ClientID, MessageID: m.MessageID, Message: m.Message}
}

func (m *Image) Echo(username string) Content {
	return Content{Type: TypeImage, Username: username, ClientID: m.ClientID, MessageID: m.MessageID, Image: m.Image}
}

func (m *Voice) Echo(username string) Content {
	return Content{Type: TypeVoice, Username: username, ClientID: m.ClientID, MessageID: m.MessageID, Audio: m.Audio}
}

func (m *Reply) Echo(username string) Content {
	ref := m.ReplyTo
	ref.Content = Preview(ref.Content)
	return Content{Type: TypeReply, Username: username, ClientID: m.ClientID, MessageID: m.MessageID, Message: m.Message, ReplyTo: &ref}
}

func (m *ReactionRequest) Echo(username string) Reaction {
	return Reaction{Type: TypeReaction, MessageID: m.MessageID, Emoji: m.Emoji, Username: username, ClientID: m.ClientID}
}

// Preview truncates quoted content to PreviewRunes runes.
func Preview(content string) string {
	r := []rune(content)
	if len(r) <= PreviewRunes {
		return content
	}
	return string(r[:PreviewRunes]) + "..."
}
