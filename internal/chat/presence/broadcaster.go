// Package presence announces online/offline transitions and answers
// "who is online" queries on top of the connection registry.
package presence

import (
	"context"
	"sort"
	"sync"

	chatmetrics "github.com/AlibekovAA/relay-hub/internal/chat/metrics"
	"github.com/AlibekovAA/relay-hub/internal/chat/message"
	"github.com/AlibekovAA/relay-hub/internal/chat/registry"
	"github.com/AlibekovAA/relay-hub/internal/common/logger"
)

type Broadcaster struct {
	registry *registry.Registry
	sender   message.Sender
	log      *logger.Logger

	// announce covers a membership change and the frames announcing it, so
	// observers see transitions in the order the registry applied them.
	announce sync.Mutex
}

type Deps struct {
	Registry *registry.Registry
	Sender   message.Sender
	Log      *logger.Logger
}

func NewBroadcaster(deps Deps) *Broadcaster {
	return &Broadcaster{
		registry: deps.Registry,
		sender:   deps.Sender,
		log:      deps.Log,
	}
}

// Register binds connID to userID and announces it. Every call re-announces,
// including a user's second and later connections: everyone gets user_online,
// and the registering connection gets the online list followed by one
// user_online per other online user.
func (b *Broadcaster) Register(ctx context.Context, userID, connID string) error {
	if userID == "" || connID == "" {
		return nil
	}

	b.announce.Lock()
	defer b.announce.Unlock()

	res := b.registry.Register(userID, connID)
	chatmetrics.SetUsersOnline(b.registry.Len())

	fields := logger.Fields{
		"user_id": userID,
		"conn_id": connID,
		"action":  "presence_register",
	}

	if res.PreviousOwner != "" {
		chatmetrics.RecordPresenceTransition("moved")
		b.log.WithFields(ctx, logger.Fields{
			"user_id":        userID,
			"conn_id":        connID,
			"previous_owner": res.PreviousOwner,
			"action":         "presence_handle_moved",
		}).Warn("connection re-registered under a different user")

		if res.PreviousOwnerOffline {
			chatmetrics.RecordPresenceTransition("offline")
			if err := b.broadcastPresence(ctx, message.TypeUserOffline, res.PreviousOwner); err != nil {
				return err
			}
		}
	}

	if res.FirstConnection {
		chatmetrics.RecordPresenceTransition("online")
		b.log.WithFields(ctx, fields).Info("user online")
	} else if b.log.ShouldLog(logger.DEBUG) {
		b.log.WithFields(ctx, fields).Debug("additional connection registered")
	}

	if err := b.broadcastPresence(ctx, message.TypeUserOnline, userID); err != nil {
		return err
	}

	online := b.registry.OnlineUserIDs()
	list, err := message.Encode(message.TypeOnlineUsers, message.OnlineUsersEvent{UserIDs: online})
	if err != nil {
		return err
	}
	b.sender.SendTo(ctx, connID, list)

	for _, other := range online {
		if other == userID {
			continue
		}
		frame, err := message.Encode(message.TypeUserOnline, message.UserPresenceEvent{UserID: other})
		if err != nil {
			return err
		}
		b.sender.SendTo(ctx, connID, frame)
	}

	return nil
}

// Disconnect removes connID and announces user_offline to the remaining
// connections when it was its owner's last one. The caller must have stopped
// delivering to connID already.
func (b *Broadcaster) Disconnect(ctx context.Context, connID string) error {
	b.announce.Lock()
	defer b.announce.Unlock()

	res, err := b.registry.Unregister(connID)
	if err != nil {
		b.log.WithFields(ctx, logger.Fields{
			"conn_id": connID,
			"user_id": res.UserID,
			"action":  "presence_registry_inconsistent",
		}).Errorf("unregister failed: %v", err)
		return err
	}
	if !res.Found {
		return nil
	}

	chatmetrics.SetUsersOnline(b.registry.Len())

	if !res.LastConnection {
		if b.log.ShouldLog(logger.DEBUG) {
			b.log.WithFields(ctx, logger.Fields{
				"conn_id": connID,
				"user_id": res.UserID,
				"action":  "presence_connection_removed",
			}).Debug("connection removed, user still online")
		}
		return nil
	}

	chatmetrics.RecordPresenceTransition("offline")
	b.log.WithFields(ctx, logger.Fields{
		"conn_id": connID,
		"user_id": res.UserID,
		"action":  "presence_offline",
	}).Info("user offline")

	return b.broadcastPresence(ctx, message.TypeUserOffline, res.UserID)
}

func (b *Broadcaster) SendOnlineUsers(ctx context.Context, connID string) error {
	frame, err := message.Encode(message.TypeOnlineUsers, message.OnlineUsersEvent{UserIDs: b.registry.OnlineUserIDs()})
	if err != nil {
		return err
	}
	b.sender.SendTo(ctx, connID, frame)
	return nil
}

// SendStatus answers a debug_status request with the full registry view.
func (b *Broadcaster) SendStatus(ctx context.Context, connID string) error {
	snapshot := b.registry.Snapshot()

	users := make([]message.ConnectedUser, 0, len(snapshot))
	for userID, conns := range snapshot {
		users = append(users, message.ConnectedUser{
			UserID:      userID,
			SocketCount: len(conns),
			SocketIDs:   conns,
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })

	frame, err := message.Encode(message.TypeDebugStatusResponse, message.DebugStatusEvent{
		TotalUsers:     len(users),
		ConnectedUsers: users,
		SocketID:       connID,
	})
	if err != nil {
		return err
	}
	b.sender.SendTo(ctx, connID, frame)
	return nil
}

func (b *Broadcaster) OnlineUsers() []string {
	return b.registry.OnlineUserIDs()
}

func (b *Broadcaster) broadcastPresence(ctx context.Context, t message.Type, userID string) error {
	frame, err := message.Encode(t, message.UserPresenceEvent{UserID: userID})
	if err != nil {
		return err
	}
	b.sender.Broadcast(ctx, frame)
	return nil
}
