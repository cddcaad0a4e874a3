package natsadapter

import (
	"context"
	"encoding/json"

	nats "github.com/nats-io/nats.go"

	"github.com/mahhuOps/portfoliovn/internal/domain"
	"github.com/mahhuOps/portfoliovn/internal/reconciler"
)

// SessionPublisher mirrors committed session snapshots onto a NATS subject
// so downstream services (navigation, admin surfaces) can react without
// polling.
type SessionPublisher struct {
	conn    *nats.Conn
	subject string
}

type sessionEvent struct {
	State   string          `json:"state"`
	Session *domain.Session `json:"session,omitempty"`
}

// SnapshotSource is the reconciler-side subscription the publisher drains.
type SnapshotSource interface {
	Subscribe() (<-chan reconciler.Snapshot, func())
}

func NewSessionPublisher(conn *nats.Conn, subject string) *SessionPublisher {
	return &SessionPublisher{conn: conn, subject: subject}
}

// Run forwards snapshots until ctx is cancelled. Publish failures are
// dropped; NATS being down must never block the reconciler.
func (p *SessionPublisher) Run(ctx context.Context, source SnapshotSource) {
	snapshots, cancel := source.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			p.publish(snap)
		}
	}
}

func (p *SessionPublisher) publish(snap reconciler.Snapshot) {
	if p.conn == nil {
		return
	}
	data, err := json.Marshal(sessionEvent{State: snap.State.String(), Session: snap.Session})
	if err != nil {
		return
	}
	_ = p.conn.Publish(p.subject, data)
}
