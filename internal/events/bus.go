// Package events publishes profile lifecycle events over NATS.
// Downstream consumers (recomputation, reporting) are outside this
// service; the wire contract here must stay stable.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectDescriptionUpdated is published after any profile description
// mutation.
const SubjectDescriptionUpdated = "rapport.profile.description.updated"

// Description update sources, so consumers can tell a fresh profile
// from a supplement rewrite.
const (
	SourceFinalize   = "finalize"
	SourceSupplement = "supplement"
)

// DescriptionUpdated is the payload for SubjectDescriptionUpdated.
type DescriptionUpdated struct {
	EntityKind  string    `json:"entity_kind"`
	EntityID    string    `json:"entity_id"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Bus struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func Connect(url, token string, logger *slog.Logger) (*Bus, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Bus{conn: nc, logger: logger}, nil
}

func (b *Bus) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return b.conn.Publish(subject, payload)
}

// PublishDescriptionUpdated emits the description-changed event.
func (b *Bus) PublishDescriptionUpdated(entityKind, entityID, description, source string) error {
	return b.Publish(SubjectDescriptionUpdated, DescriptionUpdated{
		EntityKind:  entityKind,
		EntityID:    entityID,
		Description: description,
		Source:      source,
		UpdatedAt:   time.Now().UTC(),
	})
}

func (b *Bus) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	b.subs = append(b.subs, sub)
	b.logger.Info("subscribed", "subject", subject)
	return nil
}

func (b *Bus) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.conn.Close()
}
