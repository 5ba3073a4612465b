// Package messagetest provides an in-memory message.Sender for tests.
package messagetest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/AlibekovAA/relay-hub/internal/chat/message"
)

// Recorder accepts frames for the connections marked live and keeps them
// in arrival order per connection.
type Recorder struct {
	mu     sync.Mutex
	live   map[string]bool
	frames map[string][]message.Frame
}

func NewRecorder(connIDs ...string) *Recorder {
	r := &Recorder{
		live:   make(map[string]bool),
		frames: make(map[string][]message.Frame),
	}
	for _, id := range connIDs {
		r.live[id] = true
	}
	return r
}

func (r *Recorder) Connect(connID string) {
	r.mu.Lock()
	r.live[connID] = true
	r.mu.Unlock()
}

func (r *Recorder) Disconnect(connID string) {
	r.mu.Lock()
	delete(r.live, connID)
	r.mu.Unlock()
}

func (r *Recorder) SendTo(_ context.Context, connID string, frame message.Frame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live[connID] {
		return false
	}
	r.frames[connID] = append(r.frames[connID], frame)
	return true
}

func (r *Recorder) Broadcast(_ context.Context, frame message.Frame) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.live))
	for id := range r.live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r.frames[id] = append(r.frames[id], frame)
	}
	return len(ids)
}

func (r *Recorder) Frames(connID string) []message.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]message.Frame, len(r.frames[connID]))
	copy(out, r.frames[connID])
	return out
}

func (r *Recorder) Types(connID string) []message.Type {
	frames := r.Frames(connID)
	out := make([]message.Type, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Type)
	}
	return out
}

// Total counts frames of type t across all connections.
func (r *Recorder) Total(t message.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, frames := range r.frames {
		for _, f := range frames {
			if f.Type == t {
				n++
			}
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = make(map[string][]message.Frame)
	r.mu.Unlock()
}

// DecodePayload unmarshals the payload of an encoded frame into v.
func DecodePayload(frame message.Frame, v any) error {
	var env message.Envelope
	if err := json.Unmarshal(frame.Data, &env); err != nil {
		return err
	}
	return json.Unmarshal(env.Payload, v)
}
