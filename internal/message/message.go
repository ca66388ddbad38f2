// internal/message/message.go
// Contains the JSON envelopes exchanged with browser clients over the websocket.
package message

// Inbound envelope types.
const (
	TypeJoinRoom      = "join-room"
	TypeText          = "message"
	TypeImage         = "image"
	TypeVoice         = "voice"
	TypeReply         = "reply"
	TypeReaction      = "reaction"
	TypeStatusRequest = "special-status-request"
	TypeLeaveRoom     = "leave-room"
)

// Outbound-only envelope types.
const (
	TypeUsernameAssigned = "username-assigned"
	TypeRoomStatus       = "room-status"
	TypeUserList         = "user-list"
	TypeStatusGrant      = "special-status-grant"
	TypeStatusRevert     = "special-status-revert"
)

// PreviewRunes caps the quoted content carried in a reply.
const PreviewRunes = 100

// ReplyRef points at the message a reply quotes.
type ReplyRef struct {
	MessageID string `json:"messageId" validate:"required,max=256"`
	Username  string `json:"username" validate:"max=64"`
	Type      string `json:"type" validate:"max=32"`
	Content   string `json:"content"`
}

// Content is the echo of a text, image, voice or reply message, stamped with the
// sender's current display name.
type Content struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	ClientID  string    `json:"clientId"`
	MessageID string    `json:"messageId"`
	Message   string    `json:"message,omitempty"`
	Image     string    `json:"image,omitempty"`
	Audio     string    `json:"audio,omitempty"`
	ReplyTo   *ReplyRef `json:"replyTo,omitempty"`
}

type Reaction struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	Username  string `json:"username"`
	ClientID  string `json:"clientId"`
}

type UsernameAssigned struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type RoomStatus struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type UserList struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

// SpecialStatus is sent both when the status is granted and when it reverts.
type SpecialStatus struct {
	Type             string `json:"type"`
	ClientID         string `json:"clientId"`
	OriginalUsername string `json:"originalUsername"`
}

func NewUsernameAssigned(username string) UsernameAssigned {
	return UsernameAssigned{Type: TypeUsernameAssigned, Username: username}
}

func NewRoomStatus(text string) RoomStatus {
	return RoomStatus{Type: TypeRoomStatus, Message: text}
}

func NewUserList(users []string) UserList {
	if users == nil {
		users = []string{}
	}
	return UserList{Type: TypeUserList, Users: users}
}

func NewStatusGrant(clientID, originalUsername string) SpecialStatus {
	return SpecialStatus{Type: TypeStatusGrant, ClientID: clientID, OriginalUsername: originalUsername}
}

func NewStatusRevert(clientID, originalUsername string) SpecialStatus {
	return SpecialStatus{Type: TypeStatusRevert, ClientID: clientID, OriginalUsername: originalUsername}
}
