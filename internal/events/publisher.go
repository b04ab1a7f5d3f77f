package events

import (
	"log"
	"time"

	"github.com/blueskyapp/social-api/config"
	"github.com/blueskyapp/social-api/pkg/kafka"
	"github.com/blueskyapp/social-api/pkg/uuid"
)

// EventType labels the domain events this service publishes.
type EventType string

const (
	EventUserSignedUp           EventType = "USER_SIGNED_UP"
	EventPasswordResetRequested EventType = "PASSWORD_RESET_REQUESTED"
	EventPasswordResetCompleted EventType = "PASSWORD_RESET_COMPLETED"
	EventNotificationCreated    EventType = "NOTIFICATION_CREATED"
)

// Event is the JSON envelope published to Kafka.
type Event struct {
	EventID   string                 `json:"event_id"`
	Timestamp int64                  `json:"timestamp"`
	Type      EventType              `json:"type"`
	UserID    string                 `json:"user_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Publisher sends domain events to Kafka. A nil producer disables publishing
// but keeps the log trail, so the service runs without a broker in dev.
type Publisher struct {
	producer *kafka.Producer
	topics   config.KafkaTopics
	enabled  bool
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer, topics config.KafkaTopics) *Publisher {
	enabled := producer != nil
	if enabled {
		log.Println("Event publisher initialized (Kafka enabled)")
	} else {
		log.Println("Event publisher initialized (Kafka disabled - events will be logged only)")
	}
	return &Publisher{
		producer: producer,
		topics:   topics,
		enabled:  enabled,
	}
}

// UserSignedUp publishes a signup event
func (p *Publisher) UserSignedUp(userID, email string) {
	p.publish(p.topics.UserSignedUp, Event{
		Type:   EventUserSignedUp,
		UserID: userID,
		Email:  email,
	})
}

// PasswordResetRequested publishes a reset-request event. The code itself is
// never published.
func (p *Publisher) PasswordResetRequested(email string) {
	p.publish(p.topics.PasswordResetRequested, Event{
		Type:  EventPasswordResetRequested,
		Email: email,
	})
}

// PasswordResetCompleted publishes a reset-completion event
func (p *Publisher) PasswordResetCompleted(userID, email string) {
	p.publish(p.topics.PasswordResetCompleted, Event{
		Type:   EventPasswordResetCompleted,
		UserID: userID,
		Email:  email,
	})
}

// NotificationCreated publishes a notification event
func (p *Publisher) NotificationCreated(fromID, toID, kind string) {
	p.publish(p.topics.NotificationCreated, Event{
		Type:   EventNotificationCreated,
		UserID: toID,
		Metadata: map[string]interface{}{
			"from": fromID,
			"kind": kind,
		},
	})
}

// publish is fire-and-forget: event delivery must never block or fail a
// user-facing request.
func (p *Publisher) publish(topic string, event Event) {
	if p == nil {
		return
	}

	event.EventID = uuid.MustNewUUID()
	event.Timestamp = time.Now().Unix()

	log.Printf("EVENT: %s user=%s email=%s", event.Type, event.UserID, event.Email)

	if !p.enabled || p.producer == nil {
		return
	}

	go func() {
		if err := p.producer.PublishJSON(topic, event); err != nil {
			log.Printf("Failed to publish %s event: %v", event.Type, err)
		}
	}()
}
