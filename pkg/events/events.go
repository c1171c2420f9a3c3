package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dohwa-law/portal-gate/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	// Credential lifecycle
	CredentialCreated  = "credential.created"
	CredentialDeleted  = "credential.deleted"
	AdminSecretRotated = "credential.admin.rotated"

	// Verification outcomes (observability only; payloads never carry secrets)
	AccessGranted = "access.granted"
	AccessDenied  = "access.denied"
)

// Event payloads
type CredentialCreatedEvent struct {
	CredentialID string    `json:"credential_id"`
	Category     string    `json:"category"`
	Label        string    `json:"label,omitempty"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CredentialDeletedEvent struct {
	CredentialID string    `json:"credential_id"`
	DeletedAt    time.Time `json:"deleted_at"`
}

type AdminSecretRotatedEvent struct {
	RotatedAt time.Time `json:"rotated_at"`
}

type AccessGrantedEvent struct {
	Category  string    `json:"category"`
	Emergency bool      `json:"emergency"`
	GrantedAt time.Time `json:"granted_at"`
}

type AccessDeniedEvent struct {
	Category string    `json:"category"`
	Reason   string    `json:"reason"`
	DeniedAt time.Time `json:"denied_at"`
}
