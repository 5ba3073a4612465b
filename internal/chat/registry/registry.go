// Package registry tracks which users are online and through which connections.
//
// Two indexes are kept under one lock: userID to the set of its connection
// handles, and handle to owning userID. A userID is present iff its set is
// non-empty, and a handle belongs to at most one user.
package registry

import (
	"fmt"
	"sort"
	"sync"

	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
)

type RegisterResult struct {
	// Added is false when the pair was already registered or the input was empty.
	Added bool
	// FirstConnection reports that the user had no connections before this call.
	FirstConnection bool
	// PreviousOwner is set when the handle was moved away from another user.
	PreviousOwner string
	// PreviousOwnerOffline reports that the move removed PreviousOwner's last handle.
	PreviousOwnerOffline bool
}

type UnregisterResult struct {
	UserID         string
	Found          bool
	LastConnection bool
}

type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]struct{}
	byConn map[string]string
}

func New() *Registry {
	return &Registry{
		byUser: make(map[string]map[string]struct{}),
		byConn: make(map[string]string),
	}
}

// Register attaches connID to userID. Registering the same pair twice is a no-op;
// registering a handle owned by someone else moves it.
func (r *Registry) Register(userID, connID string) RegisterResult {
	if userID == "" || connID == "" {
		return RegisterResult{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var res RegisterResult

	if owner, ok := r.byConn[connID]; ok {
		if owner == userID {
			return res
		}
		res.PreviousOwner = owner
		res.PreviousOwnerOffline = r.detachLocked(owner, connID)
	}

	conns, ok := r.byUser[userID]
	if !ok {
		conns = make(map[string]struct{}, 1)
		r.byUser[userID] = conns
		res.FirstConnection = true
	}
	conns[connID] = struct{}{}
	r.byConn[connID] = userID
	res.Added = true

	return res
}

// Unregister detaches connID from its owner. An unknown handle is a no-op.
// If the owner index points at a user whose set lacks the handle, the dangling
// index entry is dropped and ErrRegistryInconsistent is returned.
func (r *Registry) Unregister(connID string) (UnregisterResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.byConn[connID]
	if !ok {
		return UnregisterResult{}, nil
	}
	delete(r.byConn, connID)

	conns, ok := r.byUser[owner]
	if !ok {
		return UnregisterResult{UserID: owner}, commonerrors.ErrRegistryInconsistent.WithCause(
			fmt.Errorf("connection %s points at user %s with no entry", connID, owner))
	}
	if _, ok := conns[connID]; !ok {
		return UnregisterResult{UserID: owner}, commonerrors.ErrRegistryInconsistent.WithCause(
			fmt.Errorf("connection %s missing from user %s set", connID, owner))
	}

	delete(conns, connID)
	last := len(conns) == 0
	if last {
		delete(r.byUser, owner)
	}

	return UnregisterResult{UserID: owner, Found: true, LastConnection: last}, nil
}

// detachLocked removes connID from userID's set and reports whether the set emptied.
func (r *Registry) detachLocked(userID, connID string) bool {
	delete(r.byConn, connID)
	conns, ok := r.byUser[userID]
	if !ok {
		return false
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.byUser, userID)
		return true
	}
	return false
}

// ConnectionsOf returns a point-in-time copy of userID's handles.
func (r *Registry) ConnectionsOf(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[userID]
	if len(conns) == 0 {
		return nil
	}
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// OnlineUserIDs returns the users with at least one handle, sorted.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns a deep copy of the user index.
func (r *Registry) Snapshot() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.byUser))
	for userID, conns := range r.byUser {
		ids := make([]string, 0, len(conns))
		for id := range conns {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[userID] = ids
	}
	return out
}

func (r *Registry) Owner(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.byConn[connID]
	return owner, ok
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// Len is the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
