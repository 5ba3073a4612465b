package message

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Inbound payloads. Optional pass-through fields are kept raw so clients get
// back exactly the JSON they sent.

type RegisterPayload struct {
	UserID string `json:"userId" validate:"required"`
}

type TypingPayload struct {
	SenderID   string `json:"senderId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
}

type SendMessagePayload struct {
	SenderID   string          `json:"senderId" validate:"required"`
	ReceiverID string          `json:"receiverId" validate:"required"`
	Content    json.RawMessage `json:"content" validate:"jsonvalue"`
	MessageID  json.RawMessage `json:"messageId,omitempty"`
	CreatedAt  json.RawMessage `json:"createdAt,omitempty"`
}

type SendMediaPayload struct {
	SenderID   string          `json:"senderId" validate:"required"`
	ReceiverID string          `json:"receiverId" validate:"required"`
	MediaType  string          `json:"mediaType" validate:"required"`
	Data       json.RawMessage `json:"data,omitempty"`
	Filename   json.RawMessage `json:"filename,omitempty"`
	MessageID  json.RawMessage `json:"messageId,omitempty"`
	CreatedAt  json.RawMessage `json:"createdAt,omitempty"`
}

type OfferPayload struct {
	ReceiverID string                     `json:"receiverId" validate:"required"`
	SenderID   string                     `json:"senderId" validate:"required"`
	Offer      *webrtc.SessionDescription `json:"offer" validate:"required"`
}

type AnswerPayload struct {
	SenderSocketID string                     `json:"senderSocketId" validate:"required"`
	Answer         *webrtc.SessionDescription `json:"answer" validate:"required"`
}

type ICEPayload struct {
	TargetSocketID string                   `json:"targetSocketId" validate:"required"`
	Candidate      *webrtc.ICECandidateInit `json:"candidate" validate:"required"`
}

type NotifyPayload struct {
	RecipientID string          `json:"recipientId" validate:"required"`
	Message     json.RawMessage `json:"message" validate:"jsonvalue"`
}

// Outbound payloads.

type ConnectedEvent struct {
	SocketID string `json:"socketId"`
}

type UserPresenceEvent struct {
	UserID string `json:"userId"`
}

type OnlineUsersEvent struct {
	UserIDs []string `json:"userIds"`
}

type TypingEvent struct {
	SenderID string `json:"senderId"`
}

type ReceiveMessageEvent struct {
	SenderID  string          `json:"senderId"`
	Content   json.RawMessage `json:"content"`
	MessageID json.RawMessage `json:"messageId,omitempty"`
	CreatedAt json.RawMessage `json:"createdAt,omitempty"`
}

type ReceiveMediaEvent struct {
	SenderID  string          `json:"senderId"`
	MediaType string          `json:"mediaType"`
	Data      json.RawMessage `json:"data,omitempty"`
	Filename  json.RawMessage `json:"filename,omitempty"`
	MessageID json.RawMessage `json:"messageId,omitempty"`
	CreatedAt json.RawMessage `json:"createdAt,omitempty"`
}

type OfferEvent struct {
	SenderSocketID string                     `json:"senderSocketId"`
	SenderID       string                     `json:"senderId"`
	Offer          *webrtc.SessionDescription `json:"offer"`
}

type AnswerEvent struct {
	Answer           *webrtc.SessionDescription `json:"answer"`
	ReceiverSocketID string                     `json:"receiverSocketId"`
}

type ICEEvent struct {
	Candidate *webrtc.ICECandidateInit `json:"candidate"`
}

type ConnectedUser struct {
	UserID      string   `json:"userId"`
	SocketCount int      `json:"socketCount"`
	SocketIDs   []string `json:"socketIds"`
}

type DebugStatusEvent struct {
	TotalUsers     int             `json:"totalUsers"`
	ConnectedUsers []ConnectedUser `json:"connectedUsers"`
	SocketID       string          `json:"socketId"`
}

type NotificationEvent struct {
	Message json.RawMessage `json:"message"`
}
