package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
	"github.com/AlibekovAA/relay-hub/internal/common/validation"
)

// Frame is an outbound event encoded once and shared by every recipient.
type Frame struct {
	Type Type
	Data []byte
}

// Encode marshals payload into an envelope of type t. A nil payload yields
// an envelope without a payload field.
func Encode(t Type, payload any) (Frame, error) {
	env := Envelope{Type: t}
	if payload != nil {
		raw, err := marshal(payload)
		if err != nil {
			return Frame{}, commonerrors.ErrMarshalError.WithCause(fmt.Errorf("encode %s payload: %w", t, err))
		}
		env.Payload = raw
	}

	data, err := marshal(env)
	if err != nil {
		return Frame{}, commonerrors.ErrMarshalError.WithCause(fmt.Errorf("encode %s envelope: %w", t, err))
	}
	return Frame{Type: t, Data: data}, nil
}

// marshal leaves HTML characters unescaped so relayed content keeps its bytes.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ParseEnvelope decodes a raw inbound frame.
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, commonerrors.ErrInvalidJSON.WithCause(err)
	}
	if env.Type == "" {
		return Envelope{}, commonerrors.ErrInvalidPayload.WithCause(errors.New("missing type"))
	}
	if !env.Type.IsInbound() {
		return Envelope{}, commonerrors.ErrUnknownMessageType.WithCause(fmt.Errorf("type %q", env.Type))
	}
	return env, nil
}

// Decode unmarshals raw into v and checks its required fields.
func Decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return commonerrors.ErrInvalidPayload.WithCause(errors.New("missing payload"))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return commonerrors.ErrInvalidPayload.WithCause(err)
	}
	return validation.Struct(v)
}
