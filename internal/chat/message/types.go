// Package message defines the relay wire protocol: the JSON envelope, event
// names and the payload shapes carried in both directions.
package message

import "encoding/json"

type Type string

const (
	TypeRegister           Type = "register"
	TypeRequestOnlineUsers Type = "request_online_users"
	TypeTyping             Type = "typing"
	TypeStopTyping         Type = "stop_typing"
	TypeSendMessage        Type = "send_message"
	TypeSendMedia          Type = "send_media"
	TypeWebRTCOffer        Type = "webrtc_offer"
	TypeWebRTCAnswer       Type = "webrtc_answer"
	TypeWebRTCICE          Type = "webrtc_ice"
	TypeDebugStatus        Type = "debug_status"

	TypeConnected           Type = "connected"
	TypeUserOnline          Type = "user_online"
	TypeUserOffline         Type = "user_offline"
	TypeOnlineUsers         Type = "online_users"
	TypeReceiveMessage      Type = "receive_message"
	TypeReceiveMedia        Type = "receive_media"
	TypeDebugStatusResponse Type = "debug_status_response"
	TypeNotification        Type = "notification"
	TypeShutdown            Type = "shutdown"
)

func (t Type) String() string {
	return string(t)
}

// IsInbound reports whether clients may send this event type.
func (t Type) IsInbound() bool {
	switch t {
	case TypeRegister, TypeRequestOnlineUsers, TypeTyping, TypeStopTyping,
		TypeSendMessage, TypeSendMedia, TypeWebRTCOffer, TypeWebRTCAnswer,
		TypeWebRTCICE, TypeDebugStatus:
		return true
	default:
		return false
	}
}

type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
